package store

import (
	"context"
	"fmt"
)

// Schema DDL, applied in order by Migrate. Statements are idempotent so the
// migrator can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id              BIGSERIAL PRIMARY KEY,
		type            TEXT NOT NULL,
		institution     TEXT NOT NULL,
		account_number  TEXT NOT NULL,
		name            TEXT,
		last_synced_at  TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (type, institution, account_number)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                  BIGSERIAL PRIMARY KEY,
		account_id          BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		identifier          TEXT,
		transaction_date    DATE NOT NULL,
		processed_date      DATE NOT NULL,
		original_amount     NUMERIC(14,2) NOT NULL,
		original_currency   TEXT NOT NULL,
		charged_amount      NUMERIC(14,2),
		charged_currency    TEXT,
		description         TEXT NOT NULL,
		memo                TEXT,
		status              TEXT NOT NULL,
		transaction_type    TEXT NOT NULL,
		raw_category        TEXT,
		category            TEXT,
		user_category       TEXT,
		installment_number  INT,
		installment_total   INT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_identifier
		ON transactions (account_id, identifier)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_natural_key
		ON transactions (account_id, transaction_date, description, original_amount)`,
	`CREATE TABLE IF NOT EXISTS balances (
		id                BIGSERIAL PRIMARY KEY,
		account_id        BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		balance_date      DATE NOT NULL,
		total_amount      NUMERIC(14,2) NOT NULL,
		available_amount  NUMERIC(14,2),
		used_amount       NUMERIC(14,2),
		blocked_amount    NUMERIC(14,2),
		profit_loss_pct   NUMERIC(8,4),
		UNIQUE (account_id, balance_date)
	)`,
	`CREATE TABLE IF NOT EXISTS sync_history (
		id               BIGSERIAL PRIMARY KEY,
		run_id           UUID NOT NULL,
		sync_type        TEXT NOT NULL,
		institution      TEXT NOT NULL,
		status           TEXT NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		completed_at     TIMESTAMPTZ,
		records_added    INT NOT NULL DEFAULT 0,
		records_updated  INT NOT NULL DEFAULT 0,
		error_message    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS category_mappings (
		id                BIGSERIAL PRIMARY KEY,
		provider          TEXT NOT NULL,
		raw_category      TEXT NOT NULL,
		unified_category  TEXT NOT NULL,
		UNIQUE (provider, raw_category)
	)`,
	`CREATE TABLE IF NOT EXISTS merchant_mappings (
		id                BIGSERIAL PRIMARY KEY,
		pattern           TEXT NOT NULL,
		provider          TEXT,
		unified_category  TEXT NOT NULL,
		match_type        TEXT NOT NULL DEFAULT 'startswith'
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id    BIGSERIAL PRIMARY KEY,
		name  TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS transaction_tags (
		transaction_id  BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		tag_id          BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (transaction_id, tag_id)
	)`,
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
