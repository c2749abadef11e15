package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orhss/finagg/internal/domain"
)

// GetAccountByIdentity looks up an account by its (type, institution, number)
// identity key.
func (s *Store) GetAccountByIdentity(ctx context.Context, typ domain.AccountType, institution, number string) (*domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRow(ctx,
		`SELECT id, type, institution, account_number, name, last_synced_at, created_at
		 FROM accounts
		 WHERE type = $1 AND institution = $2 AND account_number = $3`,
		typ, institution, number,
	).Scan(&a.ID, &a.Type, &a.Institution, &a.AccountNumber, &a.Name, &a.LastSyncedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAccount creates an account and fills in its generated ID.
func (s *Store) InsertAccount(ctx context.Context, a *domain.Account) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO accounts (type, institution, account_number, name, last_synced_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.Type, a.Institution, a.AccountNumber, a.Name, a.LastSyncedAt,
	).Scan(&a.ID, &a.CreatedAt)
}

// TouchAccount refreshes the sync timestamp and, when non-nil, the display name.
func (s *Store) TouchAccount(ctx context.Context, id int64, name *string, syncedAt time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE accounts
		 SET last_synced_at = $2, name = COALESCE($3, name)
		 WHERE id = $1`,
		id, syncedAt, name)
	return err
}

// ListAccounts returns all accounts, most recently synced first.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, institution, account_number, name, last_synced_at, created_at
		 FROM accounts ORDER BY last_synced_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Type, &a.Institution, &a.AccountNumber, &a.Name, &a.LastSyncedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
