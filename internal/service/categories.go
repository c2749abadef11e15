package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/store"
)

// MappingStore is what the normalizer needs from the storage layer.
type MappingStore interface {
	GetCategoryMapping(ctx context.Context, provider, rawCategory string) (*domain.CategoryMapping, error)
	ListMerchantMappings(ctx context.Context, provider string) ([]domain.MerchantMapping, error)
}

// CategoryNormalizer resolves a provider's raw category string, or failing
// that the transaction description, into the unified taxonomy. An unmapped
// category is not an error: Normalize returns nil and the sync reports it for
// manual mapping.
type CategoryNormalizer struct {
	store MappingStore
}

func NewCategoryNormalizer(st MappingStore) *CategoryNormalizer {
	return &CategoryNormalizer{store: st}
}

// Normalize looks up the exact (provider, raw_category) mapping. Provider is
// matched case-insensitively; there is no fuzzy fallback on the raw string.
func (n *CategoryNormalizer) Normalize(ctx context.Context, provider, rawCategory string) (*string, error) {
	if rawCategory == "" {
		return nil, nil
	}
	m, err := n.store.GetCategoryMapping(ctx, strings.ToLower(provider), rawCategory)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("category mapping lookup failed: %w", err)
	}
	return &m.UnifiedCategory, nil
}

// NormalizeCached memoizes Normalize on the exact (provider, raw_category)
// pair for the lifetime of the cache, which the orchestrator scopes to one
// sync run. Negative results are cached too, so an unmapped category costs a
// single lookup per run no matter how many transactions carry it.
func (n *CategoryNormalizer) NormalizeCached(ctx context.Context, provider, rawCategory string, cache map[string]*string) (*string, error) {
	key := strings.ToLower(provider) + "\x00" + rawCategory
	if cached, ok := cache[key]; ok {
		return cached, nil
	}
	unified, err := n.Normalize(ctx, provider, rawCategory)
	if err != nil {
		return nil, err
	}
	cache[key] = unified
	return unified, nil
}

// NormalizeByMerchant categorizes by description when the provider sent no
// category. Provider-specific rules are tried before global ones; the first
// matching pattern wins.
func (n *CategoryNormalizer) NormalizeByMerchant(ctx context.Context, description, provider string) (*string, error) {
	if description == "" {
		return nil, nil
	}
	mappings, err := n.store.ListMerchantMappings(ctx, strings.ToLower(provider))
	if err != nil {
		return nil, fmt.Errorf("merchant mapping lookup failed: %w", err)
	}
	for i := range mappings {
		if mappings[i].Matches(description) {
			return &mappings[i].UnifiedCategory, nil
		}
	}
	return nil, nil
}
