package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode and pragmas are configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createBotsTable(db); err != nil {
		return err
	}

	if err := createRuleSetsTable(db); err != nil {
		return err
	}

	if err := createAssociationsTable(db); err != nil {
		return err
	}

	return createCooldownsTable(db)
}

func createBotsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS bots (
		identity_hash TEXT PRIMARY KEY,
		credential TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create bots table: %w", err)
	}

	return nil
}

func createRuleSetsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS rule_sets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		rules TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rule_sets_name ON rule_sets(name);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create rule_sets table: %w", err)
	}

	return nil
}

func createAssociationsTable(db *sql.DB) error {
	// position is the explicit merge order: higher positions are merged
	// later and win on command collisions.
	query := `
	CREATE TABLE IF NOT EXISTS bot_rule_sets (
		bot_identity_hash TEXT NOT NULL REFERENCES bots(identity_hash) ON DELETE CASCADE,
		rule_set_id INTEGER NOT NULL REFERENCES rule_sets(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (bot_identity_hash, rule_set_id)
	);
	CREATE INDEX IF NOT EXISTS idx_bot_rule_sets_bot ON bot_rule_sets(bot_identity_hash, position);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create bot_rule_sets table: %w", err)
	}

	return nil
}

func createCooldownsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS cooldowns (
		bot_identity_hash TEXT NOT NULL,
		user_id TEXT NOT NULL,
		command TEXT NOT NULL,
		last_dispatch_ms INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (bot_identity_hash, user_id, command)
	);
	CREATE INDEX IF NOT EXISTS idx_cooldowns_expires_at ON cooldowns(expires_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create cooldowns table: %w", err)
	}

	return nil
}
