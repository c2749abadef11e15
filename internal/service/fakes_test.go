package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/store"
)

// fakeStore is an in-memory stand-in for the pgx store, implementing the
// narrow interfaces the services consume.
type fakeStore struct {
	nextID int64

	accounts     []*domain.Account
	transactions []*domain.Transaction
	balances     []*domain.Balance

	categoryMappings map[string]string // provider + "\x00" + raw -> unified
	categoryLookups  int
	merchants        []domain.MerchantMapping

	tags      map[string]int64
	tagged    map[int64][]string
	tagErr    error
	touchedAt []time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categoryMappings: make(map[string]string),
		tags:             make(map[string]int64),
		tagged:           make(map[int64][]string),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// AccountStore

func (f *fakeStore) GetAccountByIdentity(_ context.Context, typ domain.AccountType, institution, number string) (*domain.Account, error) {
	for _, a := range f.accounts {
		if a.Type == typ && a.Institution == institution && a.AccountNumber == number {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) InsertAccount(_ context.Context, a *domain.Account) error {
	a.ID = f.id()
	a.CreatedAt = time.Now()
	f.accounts = append(f.accounts, a)
	return nil
}

func (f *fakeStore) TouchAccount(_ context.Context, id int64, name *string, syncedAt time.Time) error {
	for _, a := range f.accounts {
		if a.ID == id {
			a.LastSyncedAt = syncedAt
			if name != nil {
				a.Name = name
			}
			f.touchedAt = append(f.touchedAt, syncedAt)
			return nil
		}
	}
	return store.ErrNotFound
}

// BalanceStore

func (f *fakeStore) UpsertBalance(_ context.Context, b *domain.Balance) error {
	for _, existing := range f.balances {
		if existing.AccountID == b.AccountID && sameDay(existing.BalanceDate, b.BalanceDate) {
			*existing = *b
			existing.ID = b.ID
			return nil
		}
	}
	b.ID = f.id()
	f.balances = append(f.balances, b)
	return nil
}

// MappingStore

func (f *fakeStore) GetCategoryMapping(_ context.Context, provider, rawCategory string) (*domain.CategoryMapping, error) {
	f.categoryLookups++
	unified, ok := f.categoryMappings[strings.ToLower(provider)+"\x00"+rawCategory]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &domain.CategoryMapping{
		Provider:        strings.ToLower(provider),
		RawCategory:     rawCategory,
		UnifiedCategory: unified,
	}, nil
}

func (f *fakeStore) ListMerchantMappings(_ context.Context, provider string) ([]domain.MerchantMapping, error) {
	var specific, global []domain.MerchantMapping
	for _, m := range f.merchants {
		switch {
		case m.Provider == nil:
			global = append(global, m)
		case strings.EqualFold(*m.Provider, provider):
			specific = append(specific, m)
		}
	}
	return append(specific, global...), nil
}

// ReconcilerStore

func (f *fakeStore) GetTransactionByIdentifier(_ context.Context, accountID int64, identifier string) (*domain.Transaction, error) {
	for _, t := range f.transactions {
		if t.AccountID == accountID && t.Identifier != nil && *t.Identifier == identifier {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindTransactionByNaturalKey(_ context.Context, accountID int64, date time.Time, description string, amount decimal.Decimal, pendingOnly bool) (*domain.Transaction, error) {
	for _, t := range f.transactions {
		if t.AccountID != accountID || !sameDay(t.TransactionDate, date) {
			continue
		}
		if t.Description != description || !t.OriginalAmount.Equal(amount) {
			continue
		}
		if pendingOnly && t.Status != domain.StatusPending {
			continue
		}
		return t, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) InsertTransaction(_ context.Context, t *domain.Transaction) error {
	t.ID = f.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.transactions = append(f.transactions, t)
	return nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, t *domain.Transaction) error {
	for _, existing := range f.transactions {
		if existing.ID == t.ID {
			*existing = *t
			existing.UpdatedAt = time.Now()
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) EnsureTag(_ context.Context, name string) (int64, error) {
	if f.tagErr != nil {
		return 0, f.tagErr
	}
	if id, ok := f.tags[name]; ok {
		return id, nil
	}
	id := f.id()
	f.tags[name] = id
	return id, nil
}

func (f *fakeStore) AttachTag(_ context.Context, transactionID, tagID int64) error {
	for name, id := range f.tags {
		if id == tagID {
			f.tagged[transactionID] = append(f.tagged[transactionID], name)
		}
	}
	return nil
}

// Test data helpers

func strptr(s string) *string { return &s }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
