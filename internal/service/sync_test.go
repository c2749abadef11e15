package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orhss/finagg/internal/domain"
)

// fakeTx satisfies pgx.Tx for the orchestrator, which only ever commits or
// rolls back; the embedded interface covers the methods the tests never hit.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

// fakeHistories records audit rows, split by whether they were written on the
// sync transaction or outside it.
type fakeHistories struct {
	nextID  int64
	inTx    []*domain.SyncHistory
	outside []*domain.SyncHistory
}

func (h *fakeHistories) store(rows *[]*domain.SyncHistory) HistoryStore {
	return historySink{h: h, rows: rows}
}

type historySink struct {
	h    *fakeHistories
	rows *[]*domain.SyncHistory
}

func (s historySink) InsertSyncRun(_ context.Context, row *domain.SyncHistory) error {
	s.h.nextID++
	row.ID = s.h.nextID
	cp := *row
	*s.rows = append(*s.rows, &cp)
	return nil
}

func (s historySink) FinalizeSyncRun(_ context.Context, row *domain.SyncHistory) error {
	for _, existing := range *s.rows {
		if existing.ID == row.ID {
			*existing = *row
			return nil
		}
	}
	return errors.New("no such run")
}

func newTestOrchestrator(tx *fakeTx, h *fakeHistories, now time.Time) *SyncOrchestrator {
	return &SyncOrchestrator{
		db: &fakeBeginner{tx: tx},
		histories: func(t pgx.Tx) HistoryStore {
			if t == nil {
				return h.store(&h.outside)
			}
			return h.store(&h.inTx)
		},
		log: zerolog.Nop(),
		now: func() time.Time { return now },
	}
}

func TestOrchestrator_SuccessCommitsAndFinalizes(t *testing.T) {
	tx := &fakeTx{}
	h := &fakeHistories{}
	o := newTestOrchestrator(tx, h, time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))

	result, err := o.Run(context.Background(), "credit_card", "max", func(ctx context.Context, _ pgx.Tx, run *RunStats) error {
		run.Added = 3
		run.Updated = 2
		run.AccountsSynced = 1
		return nil
	})
	require.NoError(t, err)

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)

	require.Len(t, h.inTx, 1)
	assert.Empty(t, h.outside)
	row := h.inTx[0]
	assert.Equal(t, domain.SyncSuccess, row.Status)
	assert.Equal(t, 3, row.RecordsAdded)
	assert.Equal(t, 2, row.RecordsUpdated)
	require.NotNil(t, row.CompletedAt)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TransactionsAdded)
	assert.Equal(t, 2, result.TransactionsUpdated)
	assert.Equal(t, 1, result.AccountsSynced)
	assert.Equal(t, row.RunID, result.RunID)
}

// A body that fails mid-run must leave nothing committed and exactly one
// failed audit row written outside the rolled-back transaction.
func TestOrchestrator_FailureRollsBackAndAudits(t *testing.T) {
	tx := &fakeTx{}
	h := &fakeHistories{}
	started := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	o := newTestOrchestrator(tx, h, started)

	boom := errors.New("provider exploded after 3 inserts")
	result, err := o.Run(context.Background(), "credit_card", "max", func(ctx context.Context, _ pgx.Tx, run *RunStats) error {
		run.Added = 3
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)

	// The in-tx row was discarded with the rollback; only the failure row
	// written on a fresh transaction survives.
	require.Len(t, h.outside, 1)
	row := h.outside[0]
	assert.Equal(t, domain.SyncFailed, row.Status)
	assert.Equal(t, started, row.StartedAt)
	require.NotNil(t, row.ErrorMessage)
	assert.Contains(t, *row.ErrorMessage, "provider exploded")
	require.NotNil(t, row.CompletedAt)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "provider exploded")
}

func TestOrchestrator_BeginFailureStillAudited(t *testing.T) {
	h := &fakeHistories{}
	o := &SyncOrchestrator{
		db: &fakeBeginner{err: errors.New("pool exhausted")},
		histories: func(t pgx.Tx) HistoryStore {
			if t == nil {
				return h.store(&h.outside)
			}
			return h.store(&h.inTx)
		},
		log: zerolog.Nop(),
		now: time.Now,
	}

	result, err := o.Run(context.Background(), "credit_card", "max", func(context.Context, pgx.Tx, *RunStats) error {
		t.Fatal("body must not run when begin fails")
		return nil
	})
	require.Error(t, err)
	assert.False(t, result.Success)
	require.Len(t, h.outside, 1)
	assert.Equal(t, domain.SyncFailed, h.outside[0].Status)
}
