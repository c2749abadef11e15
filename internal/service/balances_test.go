package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orhss/finagg/internal/models"
)

func TestRecord_UpsertsPerDate(t *testing.T) {
	f := newFakeStore()
	r := NewBalanceRecorder(f)

	first, err := r.Record(context.Background(), 7, models.RawBalance{
		Date:        date(2024, 2, 1),
		TotalAmount: dec("1500.00"),
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	// Re-sync of the same day overwrites, a new day appends.
	_, err = r.Record(context.Background(), 7, models.RawBalance{
		Date:          date(2024, 2, 1),
		TotalAmount:   dec("1450.00"),
		ProfitLossPct: decptr("-3.33"),
	})
	require.NoError(t, err)

	_, err = r.Record(context.Background(), 7, models.RawBalance{
		Date:        date(2024, 2, 2),
		TotalAmount: dec("1460.00"),
	})
	require.NoError(t, err)

	require.Len(t, f.balances, 2)
	assert.True(t, f.balances[0].TotalAmount.Equal(dec("1450.00")))
	require.NotNil(t, f.balances[0].ProfitLossPct)
}
