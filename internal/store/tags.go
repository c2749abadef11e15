package store

import "context"

// EnsureTag returns the ID of the named tag, creating it if needed.
func (s *Store) EnsureTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO tags (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name,
	).Scan(&id)
	return id, err
}

// AttachTag links a tag to a transaction. Re-attaching is a no-op.
func (s *Store) AttachTag(ctx context.Context, transactionID, tagID int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO transaction_tags (transaction_id, tag_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		transactionID, tagID)
	return err
}
