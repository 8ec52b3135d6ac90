package postgres

import (
	"context"
	"fmt"

	facegate "github.com/jesssevilleja/facegate"
)

// migrations are applied in order, each inside its own transaction.
// Versions already recorded in schema_migrations are skipped.
var migrations = []string{
	// 1: wallets and the credit ledger
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id    TEXT PRIMARY KEY,
		balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES wallets(user_id),
		entry_type      TEXT NOT NULL CHECK (entry_type IN ('debit', 'credit')),
		amount          BIGINT NOT NULL CHECK (amount > 0),
		balance         BIGINT NOT NULL CHECK (balance >= 0),
		description     TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT UNIQUE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_created
		ON ledger_entries (user_id, created_at DESC);`,

	// 2: the item catalog
	`CREATE TABLE IF NOT EXISTS items (
		id            TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		name          TEXT NOT NULL,
		image_url     TEXT NOT NULL DEFAULT '',
		view_count    BIGINT NOT NULL DEFAULT 0 CHECK (view_count >= 0),
		like_count    BIGINT NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		expression    TEXT NOT NULL DEFAULT '',
		style         TEXT NOT NULL DEFAULT '',
		makeup        TEXT NOT NULL DEFAULT '',
		accessories   TEXT NOT NULL DEFAULT '',
		products_used TEXT[] NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_items_owner ON items (owner_id);
	CREATE INDEX IF NOT EXISTS idx_items_created ON items (created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_items_views ON items (view_count DESC);
	CREATE INDEX IF NOT EXISTS idx_items_likes ON items (like_count DESC);`,

	// 3: access records and likes, one row per (user, item)
	`CREATE TABLE IF NOT EXISTS item_accesses (
		user_id    TEXT NOT NULL,
		item_id    TEXT NOT NULL REFERENCES items(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, item_id)
	);
	CREATE TABLE IF NOT EXISTS item_likes (
		user_id    TEXT NOT NULL,
		item_id    TEXT NOT NULL REFERENCES items(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, item_id)
	);`,

	// 4: the engagement event log
	`CREATE TABLE IF NOT EXISTS engagement_events (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		item_id         TEXT NOT NULL,
		kind            TEXT NOT NULL,
		occurred_at     TIMESTAMPTZ NOT NULL,
		idempotency_key TEXT UNIQUE,
		metadata        JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_events_user_time
		ON engagement_events (user_id, occurred_at DESC);`,
}

// Migrate applies pending schema migrations. Safe to run on every
// start.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrMigrationFailed, err)
	}

	for i, stmt := range migrations {
		version := i + 1

		var applied bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
			version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("%w: check version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
		if applied {
			continue
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", facegate.ErrMigrationFailed, err)
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("%w: apply version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("%w: record version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("%w: commit version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
	}
	return nil
}
