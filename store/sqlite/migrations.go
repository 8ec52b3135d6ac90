package sqlite

import (
	"context"
	"fmt"

	facegate "github.com/jesssevilleja/facegate"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id    TEXT PRIMARY KEY,
		balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES wallets(user_id),
		entry_type      TEXT NOT NULL CHECK (entry_type IN ('debit', 'credit')),
		amount          INTEGER NOT NULL CHECK (amount > 0),
		balance         INTEGER NOT NULL CHECK (balance >= 0),
		description     TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT UNIQUE,
		created_at      TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_created
		ON ledger_entries (user_id, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS items (
		id            TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		name          TEXT NOT NULL,
		image_url     TEXT NOT NULL DEFAULT '',
		view_count    INTEGER NOT NULL DEFAULT 0 CHECK (view_count >= 0),
		like_count    INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		expression    TEXT NOT NULL DEFAULT '',
		style         TEXT NOT NULL DEFAULT '',
		makeup        TEXT NOT NULL DEFAULT '',
		accessories   TEXT NOT NULL DEFAULT '',
		products_used TEXT NOT NULL DEFAULT '[]',
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_owner ON items (owner_id);
	CREATE INDEX IF NOT EXISTS idx_items_created ON items (created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS item_accesses (
		user_id    TEXT NOT NULL,
		item_id    TEXT NOT NULL REFERENCES items(id),
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, item_id)
	);
	CREATE TABLE IF NOT EXISTS item_likes (
		user_id    TEXT NOT NULL,
		item_id    TEXT NOT NULL REFERENCES items(id),
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, item_id)
	);`,

	`CREATE TABLE IF NOT EXISTS engagement_events (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		item_id         TEXT NOT NULL,
		kind            TEXT NOT NULL,
		occurred_at     TIMESTAMP NOT NULL,
		idempotency_key TEXT UNIQUE,
		metadata        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_user_time
		ON engagement_events (user_id, occurred_at DESC);`,
}

// Migrate applies pending schema migrations. Safe to run on every
// start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrMigrationFailed, err)
	}

	for i, stmt := range migrations {
		version := i + 1

		var applied int
		err := s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM schema_migrations WHERE version = ?`, version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("%w: check version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", facegate.ErrMigrationFailed, err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: apply version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: record version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit version %d: %v", facegate.ErrMigrationFailed, version, err)
		}
	}
	return nil
}
