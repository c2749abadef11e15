package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/scrape"
	"github.com/orhss/finagg/internal/store"
)

// SyncService drives one institution's fetched batch through the engine:
// resolve the account, reconcile every record, record the balance snapshot.
type SyncService struct {
	store *store.Store
	orch  *SyncOrchestrator
	log   zerolog.Logger
}

func NewSyncService(st *store.Store, log zerolog.Logger) *SyncService {
	return &SyncService{
		store: st,
		orch:  NewSyncOrchestrator(st, log),
		log:   log,
	}
}

// Run reconciles a fetched batch for one institution as a single atomic run.
func (s *SyncService) Run(ctx context.Context, institution string, req models.SyncRequest) (*models.SyncResult, error) {
	return s.orch.Run(ctx, req.SyncType, institution, func(ctx context.Context, tx pgx.Tx, run *RunStats) error {
		ts := s.store.WithTx(tx)
		resolver := NewAccountResolver(ts)
		reconciler := NewTransactionReconciler(ts, NewCategoryNormalizer(ts), s.log)
		recorder := NewBalanceRecorder(ts)

		for _, batch := range req.Accounts {
			account, err := resolver.Resolve(ctx, batch.AccountType, institution, batch.AccountNumber, batch.AccountName)
			if err != nil {
				return fmt.Errorf("account %s: %w", batch.AccountNumber, err)
			}

			for i, raw := range batch.Transactions {
				outcome, err := reconciler.Reconcile(ctx, account, raw, run)
				if err != nil {
					return fmt.Errorf("account %s record %d: %w", batch.AccountNumber, i, err)
				}
				run.Count(outcome)
			}

			if batch.Balance != nil {
				if _, err := recorder.Record(ctx, account.ID, *batch.Balance); err != nil {
					return fmt.Errorf("account %s: %w", batch.AccountNumber, err)
				}
			}
			run.AccountsSynced++
		}
		return nil
	})
}

// RunSource fetches from a scraper and reconciles what it returned. A fetch
// failure aborts before any run is opened; the scraper owns its own retries.
func (s *SyncService) RunSource(ctx context.Context, src scrape.Source) (*models.SyncResult, error) {
	batches, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s failed: %w", src.Institution(), err)
	}
	return s.Run(ctx, src.Institution(), models.SyncRequest{
		SyncType: src.SyncType(),
		Accounts: batches,
	})
}
