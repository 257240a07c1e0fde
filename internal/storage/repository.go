package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SaveBot inserts or updates a bot record keyed by identity hash.
// Credential rotation produces a new identity hash and therefore a new row;
// removing the stale row is the caller's concern.
func (db *DB) SaveBot(ctx context.Context, bot *Bot) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO bots (identity_hash, credential, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identity_hash) DO UPDATE SET
			credential = excluded.credential,
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query, bot.IdentityHash, bot.Credential, bot.DisplayName, now, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save bot",
			"identity_hash", bot.IdentityHash,
			"error", err)
		return fmt.Errorf("failed to save bot: %w", err)
	}
	return nil
}

// GetBot retrieves a bot by identity hash. Returns (nil, nil) when absent.
func (db *DB) GetBot(ctx context.Context, identityHash string) (*Bot, error) {
	query := `SELECT identity_hash, credential, display_name, created_at, updated_at FROM bots WHERE identity_hash = ?`

	var bot Bot
	err := db.conn.QueryRowContext(ctx, query, identityHash).Scan(
		&bot.IdentityHash,
		&bot.Credential,
		&bot.DisplayName,
		&bot.CreatedAt,
		&bot.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query bot",
			"identity_hash", identityHash,
			"error", err)
		return nil, fmt.Errorf("query bot: %w", err)
	}

	return &bot, nil
}

// ListBots returns all registered bots ordered by creation time.
func (db *DB) ListBots(ctx context.Context) ([]Bot, error) {
	query := `SELECT identity_hash, credential, display_name, created_at, updated_at FROM bots ORDER BY created_at, identity_hash`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query bots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bots []Bot
	for rows.Next() {
		var bot Bot
		if err := rows.Scan(&bot.IdentityHash, &bot.Credential, &bot.DisplayName, &bot.CreatedAt, &bot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bot: %w", err)
		}
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}

// DeleteBot removes a bot and, via foreign keys, its associations.
func (db *DB) DeleteBot(ctx context.Context, identityHash string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM bots WHERE identity_hash = ?`, identityHash)
	if err != nil {
		return fmt.Errorf("delete bot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountBots returns the number of registered bots.
func (db *DB) CountBots(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM bots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bots: %w", err)
	}
	return count, nil
}

// SaveRuleSet inserts a new rule set (ID == 0) or updates an existing one.
// On insert the generated ID is written back to rs.ID.
func (db *DB) SaveRuleSet(ctx context.Context, rs *RuleSet) error {
	rules, err := encodeRulesColumn(rs.Rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	now := time.Now().Unix()

	if rs.ID == 0 {
		res, err := db.conn.ExecContext(ctx,
			`INSERT INTO rule_sets (name, rules, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			rs.Name, rules, now, now)
		if err != nil {
			return fmt.Errorf("insert rule set: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("rule set insert id: %w", err)
		}
		rs.ID = id
		return nil
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE rule_sets SET name = ?, rules = ?, updated_at = ? WHERE id = ?`,
		rs.Name, rules, now, rs.ID)
	if err != nil {
		return fmt.Errorf("update rule set: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRuleSet retrieves a rule set by ID. Returns (nil, nil) when absent.
func (db *DB) GetRuleSet(ctx context.Context, id int64) (*RuleSet, error) {
	var rs RuleSet
	var rules string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, rules, created_at, updated_at FROM rule_sets WHERE id = ?`, id).
		Scan(&rs.ID, &rs.Name, &rules, &rs.CreatedAt, &rs.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query rule set: %w", err)
	}

	rs.Rules, err = decodeRulesColumn(rules)
	if err != nil {
		return nil, fmt.Errorf("decode rules for set %d: %w", id, err)
	}
	return &rs, nil
}

// ListRuleSets returns all rule sets ordered by ID.
func (db *DB) ListRuleSets(ctx context.Context) ([]RuleSet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, rules, created_at, updated_at FROM rule_sets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rule sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sets []RuleSet
	for rows.Next() {
		var rs RuleSet
		var rules string
		if err := rows.Scan(&rs.ID, &rs.Name, &rules, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rule set: %w", err)
		}
		rs.Rules, err = decodeRulesColumn(rules)
		if err != nil {
			return nil, fmt.Errorf("decode rules for set %d: %w", rs.ID, err)
		}
		sets = append(sets, rs)
	}
	return sets, rows.Err()
}

// DeleteRuleSet removes a rule set and, via foreign keys, its associations.
func (db *DB) DeleteRuleSet(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM rule_sets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule set: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRuleSets returns the number of rule sets.
func (db *DB) CountRuleSets(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM rule_sets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rule sets: %w", err)
	}
	return count, nil
}

// SetAssociations replaces the rule sets associated with a bot.
// The slice order becomes the merge order: later entries overwrite
// earlier ones on command collisions.
func (db *DB) SetAssociations(ctx context.Context, identityHash string, ruleSetIDs []int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin associations tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bot_rule_sets WHERE bot_identity_hash = ?`, identityHash); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}

	for position, id := range ruleSetIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bot_rule_sets (bot_identity_hash, rule_set_id, position) VALUES (?, ?, ?)`,
			identityHash, id, position); err != nil {
			return fmt.Errorf("insert association (set %d): %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit associations: %w", err)
	}
	return nil
}

// GetAssociatedRuleSets returns the rule sets associated with a bot in
// merge order (position, then rule set ID as tiebreaker).
func (db *DB) GetAssociatedRuleSets(ctx context.Context, identityHash string) ([]RuleSet, error) {
	query := `
		SELECT rs.id, rs.name, rs.rules, rs.created_at, rs.updated_at
		FROM rule_sets rs
		JOIN bot_rule_sets brs ON brs.rule_set_id = rs.id
		WHERE brs.bot_identity_hash = ?
		ORDER BY brs.position, rs.id
	`

	rows, err := db.conn.QueryContext(ctx, query, identityHash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query associated rule sets",
			"identity_hash", identityHash,
			"error", err)
		return nil, fmt.Errorf("query associated rule sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sets []RuleSet
	for rows.Next() {
		var rs RuleSet
		var rules string
		if err := rows.Scan(&rs.ID, &rs.Name, &rules, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan associated rule set: %w", err)
		}
		rs.Rules, err = decodeRulesColumn(rules)
		if err != nil {
			return nil, fmt.Errorf("decode rules for set %d: %w", rs.ID, err)
		}
		sets = append(sets, rs)
	}
	return sets, rows.Err()
}

// GetCooldown reads the last dispatch timestamp (milliseconds) for a
// cooldown key. Expired rows are treated as absent.
func (db *DB) GetCooldown(ctx context.Context, identityHash, userID, command string) (int64, bool, error) {
	query := `
		SELECT last_dispatch_ms FROM cooldowns
		WHERE bot_identity_hash = ? AND user_id = ? AND command = ? AND expires_at > ?
	`
	var lastMs int64
	err := db.conn.QueryRowContext(ctx, query, identityHash, userID, command, time.Now().Unix()).Scan(&lastMs)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query cooldown: %w", err)
	}
	return lastMs, true, nil
}

// SetCooldown records a dispatch timestamp with a time-to-live.
// Rows naturally expire; no explicit deletion happens on the hot path.
func (db *DB) SetCooldown(ctx context.Context, identityHash, userID, command string, lastMs int64, ttl time.Duration) error {
	query := `
		INSERT INTO cooldowns (bot_identity_hash, user_id, command, last_dispatch_ms, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bot_identity_hash, user_id, command) DO UPDATE SET
			last_dispatch_ms = excluded.last_dispatch_ms,
			expires_at = excluded.expires_at
	`
	expiresAt := time.Now().Add(ttl).Unix()
	if _, err := db.conn.ExecContext(ctx, query, identityHash, userID, command, lastMs, expiresAt); err != nil {
		slog.ErrorContext(ctx, "failed to set cooldown",
			"identity_hash", identityHash,
			"command", command,
			"error", err)
		return fmt.Errorf("set cooldown: %w", err)
	}
	return nil
}

// DeleteExpiredCooldowns removes expired cooldown rows and returns the
// number deleted. Called by the background prune job.
func (db *DB) DeleteExpiredCooldowns(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM cooldowns WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired cooldowns: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired cooldowns rows affected: %w", err)
	}
	return deleted, nil
}

// CountCooldowns returns the number of cooldown rows, including expired
// rows not yet pruned.
func (db *DB) CountCooldowns(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cooldowns`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cooldowns: %w", err)
	}
	return count, nil
}

// encodeRulesColumn marshals a rules mapping into the JSON column text.
// Values that are themselves JSON objects (structured reply records) are
// embedded as objects; anything else is stored as a JSON string.
func encodeRulesColumn(rules map[string]string) (string, error) {
	raw := make(map[string]json.RawMessage, len(rules))
	for command, value := range rules {
		trimmed := strings.TrimSpace(value)
		if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
			raw[command] = json.RawMessage(trimmed)
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("marshal rule %q: %w", command, err)
		}
		raw[command] = encoded
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeRulesColumn unmarshals the JSON column text into a rules mapping.
// String values come back verbatim; object values are kept as compact
// JSON text so the template decoder can handle both formats.
func decodeRulesColumn(column string) (map[string]string, error) {
	if column == "" {
		return map[string]string{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(column), &raw); err != nil {
		return nil, err
	}
	rules := make(map[string]string, len(raw))
	for command, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			rules[command] = s
			continue
		}
		rules[command] = string(value)
	}
	return rules, nil
}
