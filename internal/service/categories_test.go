package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orhss/finagg/internal/domain"
)

func TestNormalize_ExactMatchOnly(t *testing.T) {
	f := newFakeStore()
	f.categoryMappings["max\x00מסעדות"] = "Dining"
	n := NewCategoryNormalizer(f)

	got, err := n.Normalize(context.Background(), "MAX", "מסעדות")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dining", *got)

	// No fuzzy fallback: a near-miss raw string is simply unmapped.
	got, err = n.Normalize(context.Background(), "max", "מסעדות ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = n.Normalize(context.Background(), "max", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNormalizeCached_OneLookupPerPair(t *testing.T) {
	f := newFakeStore()
	f.categoryMappings["max\x00מזון"] = "Groceries"
	n := NewCategoryNormalizer(f)
	cache := make(map[string]*string)

	for i := 0; i < 100; i++ {
		got, err := n.NormalizeCached(context.Background(), "max", "מזון", cache)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Groceries", *got)
	}
	assert.Equal(t, 1, f.categoryLookups)

	// Negative results are memoized too.
	for i := 0; i < 100; i++ {
		got, err := n.NormalizeCached(context.Background(), "max", "לא ממופה", cache)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, 2, f.categoryLookups)
}

func TestNormalizeByMerchant_FirstMatchWins(t *testing.T) {
	f := newFakeStore()
	f.merchants = []domain.MerchantMapping{
		{Pattern: "NETFLIX", UnifiedCategory: "Entertainment", MatchType: domain.MatchStartsWith},
		{Pattern: "NET", UnifiedCategory: "Internet", MatchType: domain.MatchStartsWith},
	}
	n := NewCategoryNormalizer(f)

	got, err := n.NormalizeByMerchant(context.Background(), "NETFLIX MONTHLY", "max")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Entertainment", *got)

	// startswith: a mid-string occurrence is not a match.
	got, err = n.NormalizeByMerchant(context.Background(), "MY NETFLIX", "max")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNormalizeByMerchant_ProviderBeatsGlobal(t *testing.T) {
	f := newFakeStore()
	f.merchants = []domain.MerchantMapping{
		{Pattern: "WOLT", UnifiedCategory: "Dining", MatchType: domain.MatchStartsWith},
		{Pattern: "WOLT", Provider: strptr("max"), UnifiedCategory: "Delivery", MatchType: domain.MatchStartsWith},
	}
	n := NewCategoryNormalizer(f)

	got, err := n.NormalizeByMerchant(context.Background(), "WOLT TLV", "max")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Delivery", *got)

	got, err = n.NormalizeByMerchant(context.Background(), "WOLT TLV", "isracard")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dining", *got)
}

func TestNormalizeByMerchant_MatchTypes(t *testing.T) {
	f := newFakeStore()
	n := NewCategoryNormalizer(f)

	tests := []struct {
		name        string
		mapping     domain.MerchantMapping
		description string
		want        bool
	}{
		{"exact hit", domain.MerchantMapping{Pattern: "wolt", MatchType: domain.MatchExact, UnifiedCategory: "X"}, "WOLT", true},
		{"exact miss on extra text", domain.MerchantMapping{Pattern: "wolt", MatchType: domain.MatchExact, UnifiedCategory: "X"}, "WOLT TLV", false},
		{"contains hit", domain.MerchantMapping{Pattern: "netflix", MatchType: domain.MatchContains, UnifiedCategory: "X"}, "MY NETFLIX SUB", true},
		{"startswith hit case-insensitive", domain.MerchantMapping{Pattern: "NetFlix", MatchType: domain.MatchStartsWith, UnifiedCategory: "X"}, "netflix.com 12/24", true},
		{"startswith miss", domain.MerchantMapping{Pattern: "NETFLIX", MatchType: domain.MatchStartsWith, UnifiedCategory: "X"}, "MY NETFLIX", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.merchants = []domain.MerchantMapping{tt.mapping}
			got, err := n.NormalizeByMerchant(context.Background(), tt.description, "max")
			require.NoError(t, err)
			if tt.want {
				assert.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}
