package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestEffectiveAmount(t *testing.T) {
	original := decimal.NewFromInt(100)
	charged := decimal.NewFromInt(85)

	txn := &Transaction{OriginalAmount: original}
	assert.True(t, EffectiveAmount(txn).Equal(original))

	txn.ChargedAmount = &charged
	assert.True(t, EffectiveAmount(txn).Equal(charged))

	assert.True(t, EffectiveAmount(nil).Equal(decimal.Zero))
}

func TestEffectiveCategory_Precedence(t *testing.T) {
	txn := &Transaction{
		RawCategory:  strptr("X"),
		Category:     strptr("Y"),
		UserCategory: strptr("Z"),
	}
	assert.Equal(t, "Z", EffectiveCategory(txn))

	txn.UserCategory = nil
	assert.Equal(t, "Y", EffectiveCategory(txn))

	txn.Category = nil
	assert.Equal(t, "X", EffectiveCategory(txn))

	txn.RawCategory = nil
	assert.Equal(t, "", EffectiveCategory(txn))
}

func TestEffectiveCategory_EmptyStringsDoNotShadow(t *testing.T) {
	// Matches the NULLIF handling in EffectiveCategorySQL.
	txn := &Transaction{
		RawCategory:  strptr("X"),
		Category:     strptr(""),
		UserCategory: strptr(""),
	}
	assert.Equal(t, "X", EffectiveCategory(txn))
}

func TestMerchantMappingMatches(t *testing.T) {
	tests := []struct {
		name        string
		mapping     MerchantMapping
		description string
		want        bool
	}{
		{"startswith hit", MerchantMapping{Pattern: "NETFLIX", MatchType: MatchStartsWith}, "NETFLIX MONTHLY", true},
		{"startswith miss", MerchantMapping{Pattern: "NETFLIX", MatchType: MatchStartsWith}, "MY NETFLIX", false},
		{"startswith case-insensitive", MerchantMapping{Pattern: "netflix", MatchType: MatchStartsWith}, "Netflix.com", true},
		{"contains", MerchantMapping{Pattern: "paybox", MatchType: MatchContains}, "VIA PAYBOX LTD", true},
		{"exact", MerchantMapping{Pattern: "wolt", MatchType: MatchExact}, "WOLT", true},
		{"exact miss", MerchantMapping{Pattern: "wolt", MatchType: MatchExact}, "WOLT TLV", false},
		{"empty type defaults to startswith", MerchantMapping{Pattern: "WOLT"}, "WOLT TLV", true},
		{"empty pattern never matches", MerchantMapping{Pattern: "", MatchType: MatchContains}, "WOLT", false},
		{"empty description never matches", MerchantMapping{Pattern: "WOLT", MatchType: MatchContains}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mapping.Matches(tt.description))
		})
	}
}
