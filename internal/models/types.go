package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orhss/finagg/internal/domain"
)

// RawInstallments is the installment position of a charge, when the provider
// splits a purchase across billing months.
type RawInstallments struct {
	Number int `json:"number"`
	Total  int `json:"total"`
}

// RawTransaction is one transaction exactly as the scraping layer hands it
// over. Identifier is nil for providers that never assign stable IDs to
// pending charges.
type RawTransaction struct {
	Date             time.Time                `json:"date"`
	ProcessedDate    time.Time                `json:"processed_date"`
	OriginalAmount   decimal.Decimal          `json:"original_amount"`
	OriginalCurrency string                   `json:"original_currency"`
	ChargedAmount    *decimal.Decimal         `json:"charged_amount"`
	ChargedCurrency  *string                  `json:"charged_currency"`
	Description      string                   `json:"description"`
	Status           domain.TransactionStatus `json:"status"`
	Type             domain.TransactionType   `json:"transaction_type"`
	Identifier       *string                  `json:"identifier"`
	Memo             *string                  `json:"memo"`
	RawCategory      *string                  `json:"raw_category"`
	Installments     *RawInstallments         `json:"installments"`
	CardHolder       *string                  `json:"card_holder"`
}

// RawBalance is the balance snapshot reported alongside a fetched account.
type RawBalance struct {
	Date            time.Time        `json:"date"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	AvailableAmount *decimal.Decimal `json:"available_amount"`
	UsedAmount      *decimal.Decimal `json:"used_amount"`
	BlockedAmount   *decimal.Decimal `json:"blocked_amount"`
	ProfitLossPct   *decimal.Decimal `json:"profit_loss_pct"`
}

// AccountBatch is everything one scraper run fetched for a single account.
type AccountBatch struct {
	AccountType   domain.AccountType `json:"account_type"`
	AccountNumber string             `json:"account_number"`
	AccountName   *string            `json:"account_name"`
	Transactions  []RawTransaction   `json:"transactions"`
	Balance       *RawBalance        `json:"balance"`
}

// SyncRequest is the payload posted by (or on behalf of) a scraper: one
// institution's freshly fetched data.
type SyncRequest struct {
	SyncType string         `json:"sync_type"`
	Accounts []AccountBatch `json:"accounts"`
}

// UnmappedCategory reports a provider category string with no unified mapping
// yet, so the user can map it manually.
type UnmappedCategory struct {
	RawCategory string `json:"raw_category"`
	Count       int    `json:"count"`
}

// SyncResult is the outcome of one sync run.
type SyncResult struct {
	RunID               uuid.UUID          `json:"run_id"`
	Success             bool               `json:"success"`
	ErrorMessage        string             `json:"error_message,omitempty"`
	AccountsSynced      int                `json:"accounts_synced"`
	TransactionsAdded   int                `json:"transactions_added"`
	TransactionsUpdated int                `json:"transactions_updated"`
	UnmappedCategories  []UnmappedCategory `json:"unmapped_categories,omitempty"`
}

// MappingRow is the import/export wire format for category mappings.
type MappingRow struct {
	Provider        string `json:"provider"`
	RawCategory     string `json:"raw_category"`
	UnifiedCategory string `json:"unified_category"`
}

// ImportSummary reports what a mapping import did with each row.
type ImportSummary struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// DescriptionCount is an uncategorized description and how often it occurs.
type DescriptionCount struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// PatternSuggestion proposes a merchant pattern for manual review, derived
// from uncategorized transaction descriptions.
type PatternSuggestion struct {
	Pattern           string `json:"pattern"`
	Occurrences       int    `json:"occurrences"`
	SampleDescription string `json:"sample_description"`
}

// CategoryTotal is one row of the effective-category aggregation consumed by
// budget and analytics readers.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}
