package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/store"
)

// RunStats accumulates the outcome of one sync run. The category cache lives
// here so memoization is scoped to exactly one run.
type RunStats struct {
	AccountsSynced int
	Added          int
	Updated        int

	categoryCache map[string]*string
	unmapped      map[string]int
}

func newRunStats() *RunStats {
	return &RunStats{
		categoryCache: make(map[string]*string),
		unmapped:      make(map[string]int),
	}
}

// NoteUnmapped tallies a raw category that has no unified mapping yet.
func (s *RunStats) NoteUnmapped(rawCategory string) {
	s.unmapped[rawCategory]++
}

// Count records one reconciliation outcome.
func (s *RunStats) Count(o Outcome) {
	if o.IsUpdate() {
		s.Updated++
	} else {
		s.Added++
	}
}

func (s *RunStats) unmappedCategories() []models.UnmappedCategory {
	out := make([]models.UnmappedCategory, 0, len(s.unmapped))
	for raw, n := range s.unmapped {
		out = append(out, models.UnmappedCategory{RawCategory: raw, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RawCategory < out[j].RawCategory
	})
	return out
}

// TxBeginner opens database transactions. *store.Store satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// HistoryStore records sync audit rows.
type HistoryStore interface {
	InsertSyncRun(ctx context.Context, h *domain.SyncHistory) error
	FinalizeSyncRun(ctx context.Context, h *domain.SyncHistory) error
}

// SyncBody performs the data work of one run on the open transaction.
type SyncBody func(ctx context.Context, tx pgx.Tx, run *RunStats) error

// SyncOrchestrator wraps one sync run in an all-or-nothing unit with a
// durable audit trail. Every mutation of the run happens on a single
// transaction; on failure everything is rolled back and the failure is
// recorded on a fresh transaction so the audit row survives the rollback.
type SyncOrchestrator struct {
	db        TxBeginner
	histories func(tx pgx.Tx) HistoryStore
	log       zerolog.Logger
	now       func() time.Time
}

// NewSyncOrchestrator builds an orchestrator on the pgx-backed store.
func NewSyncOrchestrator(st *store.Store, log zerolog.Logger) *SyncOrchestrator {
	return &SyncOrchestrator{
		db: st,
		histories: func(tx pgx.Tx) HistoryStore {
			if tx == nil {
				return st
			}
			return st.WithTx(tx)
		},
		log: log,
		now: time.Now,
	}
}

// Run executes body inside one transaction. An in_progress audit row is
// inserted (and flushed, so it has an ID) before the body runs; on success it
// is finalized and committed together with the body's mutations. On failure
// the transaction is rolled back and a fresh failed row, preserving the
// original start time, is written outside it. The returned result is always
// non-nil.
func (o *SyncOrchestrator) Run(ctx context.Context, syncType, institution string, body SyncBody) (*models.SyncResult, error) {
	run := newRunStats()
	history := &domain.SyncHistory{
		RunID:       uuid.New(),
		SyncType:    syncType,
		Institution: institution,
		Status:      domain.SyncInProgress,
		StartedAt:   o.now(),
	}

	log := o.log.With().
		Stringer("run_id", history.RunID).
		Str("sync_type", syncType).
		Str("institution", institution).
		Logger()
	log.Info().Msg("sync started")

	tx, err := o.db.Begin(ctx)
	if err != nil {
		return o.fail(ctx, history, run, fmt.Errorf("sync begin failed: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := o.histories(tx).InsertSyncRun(ctx, history); err != nil {
		return o.fail(ctx, history, run, fmt.Errorf("sync audit open failed: %w", err))
	}

	if err := body(ctx, tx, run); err != nil {
		return o.fail(ctx, history, run, err)
	}

	completed := o.now()
	history.Status = domain.SyncSuccess
	history.CompletedAt = &completed
	history.RecordsAdded = run.Added
	history.RecordsUpdated = run.Updated
	if err := o.histories(tx).FinalizeSyncRun(ctx, history); err != nil {
		return o.fail(ctx, history, run, fmt.Errorf("sync audit close failed: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return o.fail(ctx, history, run, fmt.Errorf("sync commit failed: %w", err))
	}

	log.Info().
		Int("accounts", run.AccountsSynced).
		Int("added", run.Added).
		Int("updated", run.Updated).
		Msg("sync succeeded")

	return &models.SyncResult{
		RunID:               history.RunID,
		Success:             true,
		AccountsSynced:      run.AccountsSynced,
		TransactionsAdded:   run.Added,
		TransactionsUpdated: run.Updated,
		UnmappedCategories:  run.unmappedCategories(),
	}, nil
}

// fail records the failed run on a fresh transaction, after the deferred
// rollback of the main one discards every pending mutation.
func (o *SyncOrchestrator) fail(ctx context.Context, history *domain.SyncHistory, run *RunStats, cause error) (*models.SyncResult, error) {
	completed := o.now()
	msg := cause.Error()

	failed := &domain.SyncHistory{
		RunID:        history.RunID,
		SyncType:     history.SyncType,
		Institution:  history.Institution,
		Status:       domain.SyncFailed,
		StartedAt:    history.StartedAt,
		CompletedAt:  &completed,
		ErrorMessage: &msg,
	}
	if auditErr := o.histories(nil).InsertSyncRun(ctx, failed); auditErr != nil {
		o.log.Error().Err(auditErr).Stringer("run_id", history.RunID).
			Msg("failed to record sync failure")
	}

	o.log.Error().Err(cause).Stringer("run_id", history.RunID).Msg("sync failed")

	return &models.SyncResult{
		RunID:              history.RunID,
		Success:            false,
		ErrorMessage:       msg,
		UnmappedCategories: run.unmappedCategories(),
	}, cause
}
