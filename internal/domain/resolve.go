package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EffectiveAmount is the single amount consumers should use: the charged
// amount when the provider settled the charge, otherwise the original amount.
func EffectiveAmount(t *Transaction) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	if t.ChargedAmount != nil {
		return *t.ChargedAmount
	}
	return t.OriginalAmount
}

// EffectiveCategory resolves the category precedence: a manual user override
// wins, then the normalized category, then the provider's raw string. Empty
// string means uncategorized.
func EffectiveCategory(t *Transaction) string {
	if t == nil {
		return ""
	}
	if t.UserCategory != nil && *t.UserCategory != "" {
		return *t.UserCategory
	}
	if t.Category != nil && *t.Category != "" {
		return *t.Category
	}
	if t.RawCategory != nil && *t.RawCategory != "" {
		return *t.RawCategory
	}
	return ""
}

// SQL forms of the helpers above, for set-oriented use inside aggregate
// queries. They must resolve to the same value as the Go functions on every
// row; NULLIF keeps empty strings from shadowing a lower-precedence value.
const (
	EffectiveAmountSQL   = "COALESCE(charged_amount, original_amount, 0)"
	EffectiveCategorySQL = "COALESCE(NULLIF(user_category, ''), NULLIF(category, ''), NULLIF(raw_category, ''))"
)

// Matches reports whether the mapping's pattern applies to a transaction
// description. All comparisons are case-insensitive.
func (m *MerchantMapping) Matches(description string) bool {
	if m.Pattern == "" || description == "" {
		return false
	}
	pat := strings.ToLower(m.Pattern)
	desc := strings.ToLower(description)
	switch m.MatchType {
	case MatchExact:
		return desc == pat
	case MatchContains:
		return strings.Contains(desc, pat)
	default: // startswith
		return strings.HasPrefix(desc, pat)
	}
}
