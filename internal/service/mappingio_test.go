package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
)

// fakeMappingAdmin extends fakeStore with the write half of MappingAdminStore.
type fakeMappingAdmin struct {
	*fakeStore
	uncategorized []models.DescriptionCount
}

func (f *fakeMappingAdmin) ListUncategorizedDescriptions(_ context.Context, _ int) ([]models.DescriptionCount, error) {
	return f.uncategorized, nil
}

func (f *fakeMappingAdmin) InsertCategoryMapping(_ context.Context, m *domain.CategoryMapping) error {
	f.categoryMappings[m.Provider+"\x00"+m.RawCategory] = m.UnifiedCategory
	return nil
}

func (f *fakeMappingAdmin) UpdateCategoryMapping(_ context.Context, m *domain.CategoryMapping) error {
	f.categoryMappings[m.Provider+"\x00"+m.RawCategory] = m.UnifiedCategory
	return nil
}

func (f *fakeMappingAdmin) ListCategoryMappings(_ context.Context) ([]domain.CategoryMapping, error) {
	var out []domain.CategoryMapping
	for key, unified := range f.categoryMappings {
		var provider, raw string
		for i := 0; i < len(key); i++ {
			if key[i] == '\x00' {
				provider, raw = key[:i], key[i+1:]
				break
			}
		}
		out = append(out, domain.CategoryMapping{Provider: provider, RawCategory: raw, UnifiedCategory: unified})
	}
	return out, nil
}

func TestImport_AddUpdateSkip(t *testing.T) {
	f := &fakeMappingAdmin{fakeStore: newFakeStore()}
	f.categoryMappings["max\x00מסעדות"] = "Dining"
	f.categoryMappings["max\x00מזון"] = "Groceries"
	svc := NewMappingService(f)

	rows := []models.MappingRow{
		{Provider: "max", RawCategory: "מסעדות", UnifiedCategory: "Dining"},     // identical
		{Provider: "max", RawCategory: "מזון", UnifiedCategory: "Food"},         // conflict
		{Provider: "isracard", RawCategory: "דלק", UnifiedCategory: "Transport"}, // new
	}

	sum, err := svc.Import(context.Background(), rows, false)
	require.NoError(t, err)
	assert.Equal(t, models.ImportSummary{Added: 1, Skipped: 2}, sum)
	assert.Equal(t, "Groceries", f.categoryMappings["max\x00מזון"])

	sum, err = svc.Import(context.Background(), rows, true)
	require.NoError(t, err)
	assert.Equal(t, models.ImportSummary{Updated: 1, Skipped: 2}, sum)
	assert.Equal(t, "Food", f.categoryMappings["max\x00מזון"])
}

func TestSuggestMerchantPatterns_CollapsesAndRanks(t *testing.T) {
	f := &fakeMappingAdmin{fakeStore: newFakeStore()}
	f.uncategorized = []models.DescriptionCount{
		{Description: "WOLT TLV", Count: 5},
		{Description: "WOLT 99283345", Count: 4},
		{Description: "NETFLIX.COM 12/24", Count: 3},
		{Description: "12345678", Count: 9}, // pure noise, no pattern
	}
	svc := NewMappingService(f)

	got, err := svc.SuggestMerchantPatterns(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "WOLT", got[0].Pattern)
	assert.Equal(t, 9, got[0].Occurrences)
	assert.Equal(t, "WOLT TLV", got[0].SampleDescription)
	assert.Equal(t, "NETFLIX.COM", got[1].Pattern)
}

func TestImport_RejectsIncompleteRow(t *testing.T) {
	f := &fakeMappingAdmin{fakeStore: newFakeStore()}
	svc := NewMappingService(f)

	_, err := svc.Import(context.Background(), []models.MappingRow{
		{Provider: "max", RawCategory: "", UnifiedCategory: "Dining"},
	}, false)
	assert.Error(t, err)
}
