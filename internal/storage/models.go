package storage

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a resource is not found in the database
	ErrNotFound = errors.New("resource not found")
)

// Bot represents a registered bot identity.
// IdentityHash is the one-way hash of the credential used as the public
// routing key; the raw credential never appears in URLs.
type Bot struct {
	IdentityHash string `json:"identity_hash"`
	Credential   string `json:"credential"`
	DisplayName  string `json:"display_name,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// RuleSet is a named, reusable mapping from command string to encoded
// reply template. Values are either structured JSON objects
// (body/buttons/wait/cooldown) or legacy separator-joined strings;
// both decode through the template package.
type RuleSet struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Rules     map[string]string `json:"rules"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
}

// Association links a bot identity to a rule set. Position is the
// explicit merge order; rule sets at higher positions overwrite earlier
// ones on command collisions.
type Association struct {
	BotIdentityHash string `json:"bot_identity_hash"`
	RuleSetID       int64  `json:"rule_set_id"`
	Position        int    `json:"position"`
}
