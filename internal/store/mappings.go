package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/orhss/finagg/internal/domain"
)

// GetCategoryMapping looks up the unified category for an exact
// (provider, raw_category) pair. Provider comparison is case-insensitive;
// the raw category is matched verbatim.
func (s *Store) GetCategoryMapping(ctx context.Context, provider, rawCategory string) (*domain.CategoryMapping, error) {
	var m domain.CategoryMapping
	err := s.db.QueryRow(ctx,
		`SELECT id, provider, raw_category, unified_category
		 FROM category_mappings
		 WHERE provider = $1 AND raw_category = $2`,
		strings.ToLower(provider), rawCategory,
	).Scan(&m.ID, &m.Provider, &m.RawCategory, &m.UnifiedCategory)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertCategoryMapping adds a new mapping. The unique (provider,
// raw_category) constraint rejects duplicates.
func (s *Store) InsertCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error {
	m.Provider = strings.ToLower(m.Provider)
	return s.db.QueryRow(ctx,
		`INSERT INTO category_mappings (provider, raw_category, unified_category)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		m.Provider, m.RawCategory, m.UnifiedCategory,
	).Scan(&m.ID)
}

// UpdateCategoryMapping changes the unified category of an existing pair.
func (s *Store) UpdateCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE category_mappings SET unified_category = $3
		 WHERE provider = $1 AND raw_category = $2`,
		strings.ToLower(m.Provider), m.RawCategory, m.UnifiedCategory)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategoryMapping removes a mapping by ID.
func (s *Store) DeleteCategoryMapping(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM category_mappings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategoryMappings returns all mappings ordered by provider then raw
// category, the order used for export.
func (s *Store) ListCategoryMappings(ctx context.Context) ([]domain.CategoryMapping, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, provider, raw_category, unified_category
		 FROM category_mappings
		 ORDER BY provider, raw_category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CategoryMapping
	for rows.Next() {
		var m domain.CategoryMapping
		if err := rows.Scan(&m.ID, &m.Provider, &m.RawCategory, &m.UnifiedCategory); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMerchantMappings returns merchant rules applicable to a provider:
// provider-specific rows first, then global ones, each group in insertion
// order. The normalizer relies on this ordering for first-match-wins.
func (s *Store) ListMerchantMappings(ctx context.Context, provider string) ([]domain.MerchantMapping, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, pattern, provider, unified_category, match_type
		 FROM merchant_mappings
		 WHERE provider = $1 OR provider IS NULL
		 ORDER BY (provider IS NULL), id`,
		strings.ToLower(provider))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MerchantMapping
	for rows.Next() {
		var m domain.MerchantMapping
		if err := rows.Scan(&m.ID, &m.Pattern, &m.Provider, &m.UnifiedCategory, &m.MatchType); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertMerchantMapping adds a merchant rule.
func (s *Store) InsertMerchantMapping(ctx context.Context, m *domain.MerchantMapping) error {
	if m.MatchType == "" {
		m.MatchType = domain.MatchStartsWith
	}
	if m.Provider != nil {
		lower := strings.ToLower(*m.Provider)
		m.Provider = &lower
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO merchant_mappings (pattern, provider, unified_category, match_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		m.Pattern, m.Provider, m.UnifiedCategory, m.MatchType,
	).Scan(&m.ID)
}

// DeleteMerchantMapping removes a merchant rule by ID.
func (s *Store) DeleteMerchantMapping(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM merchant_mappings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
