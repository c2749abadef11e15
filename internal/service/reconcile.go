package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/store"
)

// Outcome tags what the reconciler decided for one raw record.
type Outcome string

const (
	// Inserted: no existing row matched, a new transaction was created.
	Inserted Outcome = "inserted"
	// UpdatedExact: matched on the provider's stable identifier.
	UpdatedExact Outcome = "updated_exact"
	// UpdatedPromoted: a pending row matched on the natural key and was
	// promoted to completed, gaining its identifier.
	UpdatedPromoted Outcome = "updated_promoted"
	// UpdatedNatural: an identifier-less record matched on the natural key.
	UpdatedNatural Outcome = "updated_natural"
)

// IsUpdate reports whether the outcome modified an existing row.
func (o Outcome) IsUpdate() bool { return o != Inserted }

// ReconcilerStore is what the reconciler needs from the storage layer.
type ReconcilerStore interface {
	GetTransactionByIdentifier(ctx context.Context, accountID int64, identifier string) (*domain.Transaction, error)
	FindTransactionByNaturalKey(ctx context.Context, accountID int64, date time.Time, description string, amount decimal.Decimal, pendingOnly bool) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	EnsureTag(ctx context.Context, name string) (int64, error)
	AttachTag(ctx context.Context, transactionID, tagID int64) error
}

// TransactionReconciler decides, for each raw record, whether it is a new
// transaction, an update of a stored one, or a pending charge that has now
// cleared. Re-fetching the same history window must never create duplicates,
// so when the provider supplies no stable identifier the
// (date, description, original_amount) tuple serves as the natural key. That
// key is a heuristic: two genuinely distinct same-day same-amount charges from
// one merchant will merge. Accepted limitation.
type TransactionReconciler struct {
	store      ReconcilerStore
	normalizer *CategoryNormalizer
	log        zerolog.Logger
}

func NewTransactionReconciler(st ReconcilerStore, n *CategoryNormalizer, log zerolog.Logger) *TransactionReconciler {
	return &TransactionReconciler{store: st, normalizer: n, log: log}
}

// Reconcile applies one raw record to the account. Match order:
//
//  1. identifier present and found on the account: update that row;
//  2. identifier present but unknown, record completed: a pending row with
//     the same (date, description, amount) is promoted and assigned the
//     identifier;
//  3. identifier absent: match purely on (date, description, amount);
//  4. otherwise insert.
//
// Updates never touch user_category. Inserts are followed by a best-effort
// auto-tag that must not fail the sync.
func (r *TransactionReconciler) Reconcile(ctx context.Context, account *domain.Account, raw models.RawTransaction, run *RunStats) (Outcome, error) {
	date := effectiveTransactionDate(raw)

	category, err := r.resolveCategory(ctx, account.Institution, raw, run)
	if err != nil {
		return "", err
	}

	existing, outcome, err := r.match(ctx, account.ID, date, raw)
	if err != nil {
		return "", err
	}

	if existing != nil {
		applyRecord(existing, raw, date, category)
		if err := r.store.UpdateTransaction(ctx, existing); err != nil {
			return "", fmt.Errorf("transaction update failed: %w", err)
		}
		return outcome, nil
	}

	t := &domain.Transaction{AccountID: account.ID}
	applyRecord(t, raw, date, category)
	if err := r.store.InsertTransaction(ctx, t); err != nil {
		return "", fmt.Errorf("transaction insert failed: %w", err)
	}

	r.autoTag(ctx, t, raw.CardHolder)
	return Inserted, nil
}

func (r *TransactionReconciler) match(ctx context.Context, accountID int64, date time.Time, raw models.RawTransaction) (*domain.Transaction, Outcome, error) {
	if raw.Identifier != nil && *raw.Identifier != "" {
		existing, err := r.store.GetTransactionByIdentifier(ctx, accountID, *raw.Identifier)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, "", fmt.Errorf("identifier lookup failed: %w", err)
		}
		if existing != nil {
			return existing, UpdatedExact, nil
		}

		if raw.Status == domain.StatusCompleted {
			pending, err := r.store.FindTransactionByNaturalKey(ctx, accountID, date, raw.Description, raw.OriginalAmount, true)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, "", fmt.Errorf("promotion lookup failed: %w", err)
			}
			if pending != nil {
				return pending, UpdatedPromoted, nil
			}
		}
		return nil, Inserted, nil
	}

	existing, err := r.store.FindTransactionByNaturalKey(ctx, accountID, date, raw.Description, raw.OriginalAmount, false)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("natural key lookup failed: %w", err)
	}
	if existing != nil {
		return existing, UpdatedNatural, nil
	}
	return nil, Inserted, nil
}

// resolveCategory normalizes the raw category through the run-scoped cache,
// falling back to merchant patterns when the provider sent none. A raw
// category without a mapping is tallied for the sync report.
func (r *TransactionReconciler) resolveCategory(ctx context.Context, institution string, raw models.RawTransaction, run *RunStats) (*string, error) {
	if raw.RawCategory != nil && *raw.RawCategory != "" {
		unified, err := r.normalizer.NormalizeCached(ctx, institution, *raw.RawCategory, run.categoryCache)
		if err != nil {
			return nil, err
		}
		if unified == nil {
			run.NoteUnmapped(*raw.RawCategory)
		}
		return unified, nil
	}
	return r.normalizer.NormalizeByMerchant(ctx, raw.Description, institution)
}

// applyRecord copies the sync-owned fields of the raw record onto the row.
// user_category is never assigned here.
func applyRecord(t *domain.Transaction, raw models.RawTransaction, date time.Time, category *string) {
	t.Identifier = raw.Identifier
	t.TransactionDate = date
	t.ProcessedDate = raw.ProcessedDate
	t.OriginalAmount = raw.OriginalAmount
	t.OriginalCurrency = raw.OriginalCurrency
	t.ChargedAmount = raw.ChargedAmount
	t.ChargedCurrency = raw.ChargedCurrency
	t.Description = raw.Description
	t.Memo = raw.Memo
	t.Status = raw.Status
	t.Type = raw.Type
	t.RawCategory = raw.RawCategory
	t.Category = category
	if raw.Installments != nil {
		t.InstallmentNumber = &raw.Installments.Number
		t.InstallmentTotal = &raw.Installments.Total
	} else {
		t.InstallmentNumber = nil
		t.InstallmentTotal = nil
	}
}

// autoTag labels a freshly inserted transaction with its effective category
// and the card holder alias when present. Failures are logged and swallowed:
// tagging must never abort a sync.
func (r *TransactionReconciler) autoTag(ctx context.Context, t *domain.Transaction, cardHolder *string) {
	names := make([]string, 0, 2)
	if c := domain.EffectiveCategory(t); c != "" {
		names = append(names, c)
	}
	if cardHolder != nil && *cardHolder != "" {
		names = append(names, *cardHolder)
	}
	for _, name := range names {
		tagID, err := r.store.EnsureTag(ctx, name)
		if err == nil {
			err = r.store.AttachTag(ctx, t.ID, tagID)
		}
		if err != nil {
			r.log.Warn().Err(err).Str("tag", name).Int64("transaction_id", t.ID).
				Msg("auto-tag failed")
		}
	}
}

// effectiveTransactionDate shifts the nth installment of a purchase into its
// billing month. The month add clamps to the last day of the target month
// instead of letting a day-31 date spill into the following month.
func effectiveTransactionDate(raw models.RawTransaction) time.Time {
	if raw.Type != domain.TypeInstallments || raw.Installments == nil || raw.Installments.Number <= 1 {
		return raw.Date
	}
	return addMonthsClamped(raw.Date, raw.Installments.Number-1)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
