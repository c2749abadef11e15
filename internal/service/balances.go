package service

import (
	"context"
	"fmt"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
)

// BalanceStore is what the recorder needs from the storage layer.
type BalanceStore interface {
	UpsertBalance(ctx context.Context, b *domain.Balance) error
}

// BalanceRecorder stores per-day balance snapshots. One row per
// (account, date); the latest sync of a day wins.
type BalanceRecorder struct {
	store BalanceStore
}

func NewBalanceRecorder(st BalanceStore) *BalanceRecorder {
	return &BalanceRecorder{store: st}
}

// Record upserts the snapshot for the account and date carried by raw.
func (r *BalanceRecorder) Record(ctx context.Context, accountID int64, raw models.RawBalance) (*domain.Balance, error) {
	b := &domain.Balance{
		AccountID:       accountID,
		BalanceDate:     raw.Date,
		TotalAmount:     raw.TotalAmount,
		AvailableAmount: raw.AvailableAmount,
		UsedAmount:      raw.UsedAmount,
		BlockedAmount:   raw.BlockedAmount,
		ProfitLossPct:   raw.ProfitLossPct,
	}
	if err := r.store.UpsertBalance(ctx, b); err != nil {
		return nil, fmt.Errorf("balance upsert failed: %w", err)
	}
	return b, nil
}
