package store

import (
	"context"

	"github.com/orhss/finagg/internal/domain"
)

// InsertSyncRun appends an audit row and fills in its generated ID. The
// orchestrator calls this with status in_progress inside the open sync
// transaction, and again with status failed on a fresh transaction after a
// rollback.
func (s *Store) InsertSyncRun(ctx context.Context, h *domain.SyncHistory) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO sync_history (
			run_id, sync_type, institution, status, started_at, completed_at,
			records_added, records_updated, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		h.RunID, h.SyncType, h.Institution, h.Status, h.StartedAt, h.CompletedAt,
		h.RecordsAdded, h.RecordsUpdated, h.ErrorMessage,
	).Scan(&h.ID)
}

// FinalizeSyncRun marks the in-progress row of the current run as finished.
func (s *Store) FinalizeSyncRun(ctx context.Context, h *domain.SyncHistory) error {
	_, err := s.db.Exec(ctx,
		`UPDATE sync_history SET
			status = $2, completed_at = $3,
			records_added = $4, records_updated = $5, error_message = $6
		 WHERE id = $1`,
		h.ID, h.Status, h.CompletedAt, h.RecordsAdded, h.RecordsUpdated, h.ErrorMessage)
	return err
}

// ListSyncRuns returns the most recent audit rows.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]domain.SyncHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, run_id, sync_type, institution, status, started_at, completed_at,
			records_added, records_updated, error_message
		 FROM sync_history
		 ORDER BY started_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncHistory
	for rows.Next() {
		var h domain.SyncHistory
		if err := rows.Scan(&h.ID, &h.RunID, &h.SyncType, &h.Institution, &h.Status,
			&h.StartedAt, &h.CompletedAt, &h.RecordsAdded, &h.RecordsUpdated, &h.ErrorMessage); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
