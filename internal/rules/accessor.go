// Package rules resolves bot credentials and merged reply rules from
// the persistent store.
package rules

import (
	"context"
	"fmt"

	apperrors "github.com/yuweiho/tg-replyhub-go/internal/errors"
	"github.com/yuweiho/tg-replyhub-go/internal/storage"
)

// Store is the slice of the storage layer the accessor needs.
type Store interface {
	GetBot(ctx context.Context, identityHash string) (*storage.Bot, error)
	GetAssociatedRuleSets(ctx context.Context, identityHash string) ([]storage.RuleSet, error)
}

// Accessor answers the two per-request questions: which credential does
// this identity hash map to, and what rules apply to that bot.
type Accessor struct {
	store Store
}

// New creates an Accessor backed by the given store.
func New(store Store) *Accessor {
	return &Accessor{store: store}
}

// ResolveCredential maps an identity hash to the bot API credential.
// Returns apperrors.ErrNotFound when no bot is registered under the hash.
func (a *Accessor) ResolveCredential(ctx context.Context, identityHash string) (string, error) {
	bot, err := a.store.GetBot(ctx, identityHash)
	if err != nil {
		return "", fmt.Errorf("resolve credential: %w", err)
	}
	if bot == nil {
		return "", fmt.Errorf("bot %s: %w", identityHash, apperrors.ErrNotFound)
	}
	return bot.Credential, nil
}

// ResolveRules returns the merged rule mapping for a bot. Rule sets are
// merged in association order, so a command defined in a later set
// overwrites the same command from an earlier one. A bot with no
// associated sets gets an empty mapping, never an error.
func (a *Accessor) ResolveRules(ctx context.Context, identityHash string) (map[string]string, error) {
	sets, err := a.store.GetAssociatedRuleSets(ctx, identityHash)
	if err != nil {
		return nil, fmt.Errorf("resolve rules: %w", err)
	}

	merged := make(map[string]string)
	for _, set := range sets {
		for command, reply := range set.Rules {
			merged[command] = reply
		}
	}
	return merged, nil
}
