package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies the kind of financial account a provider exposes.
type AccountType string

const (
	AccountTypeBroker     AccountType = "broker"
	AccountTypePension    AccountType = "pension"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeSavings    AccountType = "savings"
)

// TransactionStatus is the lifecycle state of a charge as reported by the provider.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
)

// TransactionType distinguishes regular charges from installment plans and credits.
type TransactionType string

const (
	TypeNormal       TransactionType = "normal"
	TypeInstallments TransactionType = "installments"
	TypeCredit       TransactionType = "credit"
)

// SyncStatus is the state of one sync run in the audit log.
type SyncStatus string

const (
	SyncInProgress SyncStatus = "in_progress"
	SyncSuccess    SyncStatus = "success"
	SyncFailed     SyncStatus = "failed"
)

// MatchType selects how a merchant pattern is compared against a description.
type MatchType string

const (
	MatchStartsWith MatchType = "startswith"
	MatchContains   MatchType = "contains"
	MatchExact      MatchType = "exact"
)

// Account is one provider account (card, broker account, pension fund).
// Identity is (Type, Institution, AccountNumber); created on first sync,
// refreshed on every subsequent one. Deleting an account cascades to its
// transactions and balances.
type Account struct {
	ID            int64       `json:"id"`
	Type          AccountType `json:"type"`
	Institution   string      `json:"institution"`
	AccountNumber string      `json:"account_number"`
	Name          *string     `json:"name,omitempty"`
	LastSyncedAt  time.Time   `json:"last_synced_at"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Transaction is one stored charge. Identity is resolved by the reconciler,
// not by a single column: see service.TransactionReconciler.
type Transaction struct {
	ID                int64             `json:"id"`
	AccountID         int64             `json:"account_id"`
	Identifier        *string           `json:"identifier,omitempty"`
	TransactionDate   time.Time         `json:"transaction_date"`
	ProcessedDate     time.Time         `json:"processed_date"`
	OriginalAmount    decimal.Decimal   `json:"original_amount"`
	OriginalCurrency  string            `json:"original_currency"`
	ChargedAmount     *decimal.Decimal  `json:"charged_amount,omitempty"`
	ChargedCurrency   *string           `json:"charged_currency,omitempty"`
	Description       string            `json:"description"`
	Memo              *string           `json:"memo,omitempty"`
	Status            TransactionStatus `json:"status"`
	Type              TransactionType   `json:"transaction_type"`
	RawCategory       *string           `json:"raw_category,omitempty"`
	Category          *string           `json:"category,omitempty"`
	UserCategory      *string           `json:"user_category,omitempty"`
	InstallmentNumber *int              `json:"installment_number,omitempty"`
	InstallmentTotal  *int              `json:"installment_total,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Balance is a per-day snapshot of an account. Unique per (account, date);
// the newest write for a date wins.
type Balance struct {
	ID              int64            `json:"id"`
	AccountID       int64            `json:"account_id"`
	BalanceDate     time.Time        `json:"balance_date"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	AvailableAmount *decimal.Decimal `json:"available_amount,omitempty"`
	UsedAmount      *decimal.Decimal `json:"used_amount,omitempty"`
	BlockedAmount   *decimal.Decimal `json:"blocked_amount,omitempty"`
	ProfitLossPct   *decimal.Decimal `json:"profit_loss_pct,omitempty"`
}

// SyncHistory is the append-only audit row for one sync run. Once a run is
// finalized the row is never mutated again.
type SyncHistory struct {
	ID             int64      `json:"id"`
	RunID          uuid.UUID  `json:"run_id"`
	SyncType       string     `json:"sync_type"`
	Institution    string     `json:"institution"`
	Status         SyncStatus `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	RecordsAdded   int        `json:"records_added"`
	RecordsUpdated int        `json:"records_updated"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

// CategoryMapping maps a provider's raw category string to the unified
// taxonomy. Unique per (provider, raw_category); provider is stored lowercased.
type CategoryMapping struct {
	ID              int64  `json:"id"`
	Provider        string `json:"provider"`
	RawCategory     string `json:"raw_category"`
	UnifiedCategory string `json:"unified_category"`
}

// MerchantMapping categorizes by description pattern when the provider sends
// no category at all. Provider-specific rows outrank global (nil provider) ones.
type MerchantMapping struct {
	ID              int64     `json:"id"`
	Pattern         string    `json:"pattern"`
	Provider        *string   `json:"provider,omitempty"`
	UnifiedCategory string    `json:"unified_category"`
	MatchType       MatchType `json:"match_type"`
}

// Tag is a free-form label attached to transactions (category names, card
// holder aliases).
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
