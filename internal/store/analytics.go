package store

import (
	"context"
	"time"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
)

// ListUncategorizedDescriptions returns the most frequent descriptions among
// transactions with no effective category, the raw material for merchant
// pattern suggestions.
func (s *Store) ListUncategorizedDescriptions(ctx context.Context, limit int) ([]models.DescriptionCount, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT description, COUNT(*) AS count
		 FROM transactions
		 WHERE `+domain.EffectiveCategorySQL+` IS NULL
		 GROUP BY description
		 ORDER BY count DESC, description
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DescriptionCount
	for rows.Next() {
		var dc models.DescriptionCount
		if err := rows.Scan(&dc.Description, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// CategoryTotals aggregates effective amounts per effective category over a
// date range. This is the set-oriented counterpart of domain.EffectiveAmount
// and domain.EffectiveCategory; the SQL expressions are shared constants so
// the two resolutions cannot drift apart.
func (s *Store) CategoryTotals(ctx context.Context, from, to time.Time) ([]models.CategoryTotal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT COALESCE(`+domain.EffectiveCategorySQL+`, '') AS category,
			SUM(`+domain.EffectiveAmountSQL+`) AS total,
			COUNT(*) AS count
		 FROM transactions
		 WHERE transaction_date >= $1 AND transaction_date <= $2
		 GROUP BY 1
		 ORDER BY 2`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}
