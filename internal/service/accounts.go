package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/store"
)

// AccountStore is what the resolver needs from the storage layer.
type AccountStore interface {
	GetAccountByIdentity(ctx context.Context, typ domain.AccountType, institution, number string) (*domain.Account, error)
	InsertAccount(ctx context.Context, a *domain.Account) error
	TouchAccount(ctx context.Context, id int64, name *string, syncedAt time.Time) error
}

// AccountResolver upserts accounts by their (type, institution, number)
// identity key. It never commits; the caller owns the transaction boundary.
type AccountResolver struct {
	store AccountStore
	now   func() time.Time
}

func NewAccountResolver(st AccountStore) *AccountResolver {
	return &AccountResolver{store: st, now: time.Now}
}

// Resolve returns the account for the identity key, creating it on first
// sight. Existing accounts get a fresh last_synced_at and, when provided, an
// updated display name.
func (r *AccountResolver) Resolve(ctx context.Context, typ domain.AccountType, institution, number string, name *string) (*domain.Account, error) {
	now := r.now()

	existing, err := r.store.GetAccountByIdentity(ctx, typ, institution, number)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}

	if existing != nil {
		if err := r.store.TouchAccount(ctx, existing.ID, name, now); err != nil {
			return nil, fmt.Errorf("account refresh failed: %w", err)
		}
		existing.LastSyncedAt = now
		if name != nil {
			existing.Name = name
		}
		return existing, nil
	}

	account := &domain.Account{
		Type:          typ,
		Institution:   institution,
		AccountNumber: number,
		Name:          name,
		LastSyncedAt:  now,
	}
	if err := r.store.InsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("account insert failed: %w", err)
	}
	return account, nil
}
