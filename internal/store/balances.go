package store

import (
	"context"

	"github.com/orhss/finagg/internal/domain"
)

// UpsertBalance writes a balance snapshot. One row per (account, date); a
// re-sync of the same day overwrites the previous snapshot.
func (s *Store) UpsertBalance(ctx context.Context, b *domain.Balance) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO balances (
			account_id, balance_date, total_amount,
			available_amount, used_amount, blocked_amount, profit_loss_pct)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (account_id, balance_date) DO UPDATE SET
			total_amount = EXCLUDED.total_amount,
			available_amount = EXCLUDED.available_amount,
			used_amount = EXCLUDED.used_amount,
			blocked_amount = EXCLUDED.blocked_amount,
			profit_loss_pct = EXCLUDED.profit_loss_pct
		 RETURNING id`,
		b.AccountID, b.BalanceDate, b.TotalAmount,
		b.AvailableAmount, b.UsedAmount, b.BlockedAmount, b.ProfitLossPct,
	).Scan(&b.ID)
}

// ListBalances returns an account's snapshots, newest first.
func (s *Store) ListBalances(ctx context.Context, accountID int64) ([]domain.Balance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, account_id, balance_date, total_amount,
			available_amount, used_amount, blocked_amount, profit_loss_pct
		 FROM balances
		 WHERE account_id = $1
		 ORDER BY balance_date DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Balance
	for rows.Next() {
		var b domain.Balance
		if err := rows.Scan(&b.ID, &b.AccountID, &b.BalanceDate, &b.TotalAmount,
			&b.AvailableAmount, &b.UsedAmount, &b.BlockedAmount, &b.ProfitLossPct); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
