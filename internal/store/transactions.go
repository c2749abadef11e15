package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/orhss/finagg/internal/domain"
)

const transactionColumns = `id, account_id, identifier, transaction_date, processed_date,
	original_amount, original_currency, charged_amount, charged_currency,
	description, memo, status, transaction_type,
	raw_category, category, user_category,
	installment_number, installment_total, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Identifier, &t.TransactionDate, &t.ProcessedDate,
		&t.OriginalAmount, &t.OriginalCurrency, &t.ChargedAmount, &t.ChargedCurrency,
		&t.Description, &t.Memo, &t.Status, &t.Type,
		&t.RawCategory, &t.Category, &t.UserCategory,
		&t.InstallmentNumber, &t.InstallmentTotal, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransactionByIdentifier finds the transaction carrying the provider's
// stable ID within one account.
func (s *Store) GetTransactionByIdentifier(ctx context.Context, accountID int64, identifier string) (*domain.Transaction, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE account_id = $1 AND identifier = $2`,
		accountID, identifier)
	return scanTransaction(row)
}

// FindTransactionByNaturalKey matches on the (date, description, amount)
// fallback key. With pendingOnly set, only rows still awaiting settlement are
// considered, which is the pending-to-completed promotion lookup.
func (s *Store) FindTransactionByNaturalKey(ctx context.Context, accountID int64, date time.Time, description string, amount decimal.Decimal, pendingOnly bool) (*domain.Transaction, error) {
	q := `SELECT ` + transactionColumns + `
		 FROM transactions
		 WHERE account_id = $1 AND transaction_date = $2
		   AND description = $3 AND original_amount = $4`
	if pendingOnly {
		q += ` AND status = 'pending'`
	}
	q += ` ORDER BY id LIMIT 1`
	return scanTransaction(s.db.QueryRow(ctx, q, accountID, date, description, amount))
}

// InsertTransaction stores a new transaction and fills in its generated fields.
func (s *Store) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO transactions (
			account_id, identifier, transaction_date, processed_date,
			original_amount, original_currency, charged_amount, charged_currency,
			description, memo, status, transaction_type,
			raw_category, category, user_category,
			installment_number, installment_total)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		 RETURNING id, created_at, updated_at`,
		t.AccountID, t.Identifier, t.TransactionDate, t.ProcessedDate,
		t.OriginalAmount, t.OriginalCurrency, t.ChargedAmount, t.ChargedCurrency,
		t.Description, t.Memo, t.Status, t.Type,
		t.RawCategory, t.Category, t.UserCategory,
		t.InstallmentNumber, t.InstallmentTotal,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// UpdateTransaction rewrites the sync-owned fields of an existing row.
// user_category is deliberately absent: manual overrides survive every sync.
func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := s.db.Exec(ctx,
		`UPDATE transactions SET
			identifier = $2, processed_date = $3,
			charged_amount = $4, charged_currency = $5,
			memo = $6, status = $7, transaction_type = $8,
			raw_category = $9, category = $10,
			installment_number = $11, installment_total = $12,
			updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Identifier, t.ProcessedDate,
		t.ChargedAmount, t.ChargedCurrency,
		t.Memo, t.Status, t.Type,
		t.RawCategory, t.Category,
		t.InstallmentNumber, t.InstallmentTotal)
	return err
}

// ListTransactionsByAccount returns an account's transactions, newest first.
func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE account_id = $1
		 ORDER BY transaction_date DESC, id DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// SetUserCategory records a manual category override outside any sync run.
func (s *Store) SetUserCategory(ctx context.Context, transactionID int64, category *string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE transactions SET user_category = $2, updated_at = now() WHERE id = $1`,
		transactionID, category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
