package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/store"
)

// MappingAdminStore is the storage surface for mapping maintenance.
type MappingAdminStore interface {
	GetCategoryMapping(ctx context.Context, provider, rawCategory string) (*domain.CategoryMapping, error)
	InsertCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error
	UpdateCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error
	ListCategoryMappings(ctx context.Context) ([]domain.CategoryMapping, error)
	ListUncategorizedDescriptions(ctx context.Context, limit int) ([]models.DescriptionCount, error)
}

// MappingService imports and exports category mappings in the JSON wire
// format shared with the dashboards.
type MappingService struct {
	store MappingAdminStore
}

func NewMappingService(st MappingAdminStore) *MappingService {
	return &MappingService{store: st}
}

// Import applies rows keyed on the exact (provider, raw_category) pair:
// unknown pairs are added, known pairs with a different unified category are
// updated only when overwrite is set, everything else is skipped.
func (m *MappingService) Import(ctx context.Context, rows []models.MappingRow, overwrite bool) (models.ImportSummary, error) {
	var sum models.ImportSummary
	for _, row := range rows {
		if row.Provider == "" || row.RawCategory == "" || row.UnifiedCategory == "" {
			return sum, fmt.Errorf("mapping row %q/%q is incomplete", row.Provider, row.RawCategory)
		}

		existing, err := m.store.GetCategoryMapping(ctx, strings.ToLower(row.Provider), row.RawCategory)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := m.store.InsertCategoryMapping(ctx, &domain.CategoryMapping{
				Provider:        row.Provider,
				RawCategory:     row.RawCategory,
				UnifiedCategory: row.UnifiedCategory,
			}); err != nil {
				return sum, fmt.Errorf("mapping insert failed: %w", err)
			}
			sum.Added++
		case err != nil:
			return sum, fmt.Errorf("mapping lookup failed: %w", err)
		case existing.UnifiedCategory == row.UnifiedCategory || !overwrite:
			sum.Skipped++
		default:
			existing.UnifiedCategory = row.UnifiedCategory
			if err := m.store.UpdateCategoryMapping(ctx, existing); err != nil {
				return sum, fmt.Errorf("mapping update failed: %w", err)
			}
			sum.Updated++
		}
	}
	return sum, nil
}

// SuggestMerchantPatterns distills the most frequent uncategorized
// descriptions into candidate merchant patterns for manual review. Distinct
// descriptions collapsing to the same pattern are summed.
func (m *MappingService) SuggestMerchantPatterns(ctx context.Context, limit int) ([]models.PatternSuggestion, error) {
	descs, err := m.store.ListUncategorizedDescriptions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("uncategorized lookup failed: %w", err)
	}

	index := make(map[string]int)
	var out []models.PatternSuggestion
	for _, dc := range descs {
		pattern := ExtractPattern(dc.Description)
		if pattern == "" {
			continue
		}
		if i, ok := index[pattern]; ok {
			out[i].Occurrences += dc.Count
			continue
		}
		index[pattern] = len(out)
		out = append(out, models.PatternSuggestion{
			Pattern:           pattern,
			Occurrences:       dc.Count,
			SampleDescription: dc.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out, nil
}

// Export returns every mapping in import order.
func (m *MappingService) Export(ctx context.Context) ([]models.MappingRow, error) {
	mappings, err := m.store.ListCategoryMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("mapping export failed: %w", err)
	}
	rows := make([]models.MappingRow, 0, len(mappings))
	for _, mm := range mappings {
		rows = append(rows, models.MappingRow{
			Provider:        mm.Provider,
			RawCategory:     mm.RawCategory,
			UnifiedCategory: mm.UnifiedCategory,
		})
	}
	return rows, nil
}
