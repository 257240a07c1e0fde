package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// CooldownStore persists last-dispatch timestamps keyed by
// (bot, user, command).
type CooldownStore interface {
	GetCooldown(ctx context.Context, identityHash, userID, command string) (lastMs int64, ok bool, err error)
	SetCooldown(ctx context.Context, identityHash, userID, command string, lastMs int64, ttl time.Duration) error
}

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed          bool
	RemainingSeconds int
}

// Cooldown enforces per-command reply cooldowns backed by a persistent
// store, so restarts do not reset open windows.
type Cooldown struct {
	store CooldownStore
	now   func() time.Time
}

// NewCooldown creates a cooldown checker backed by the given store.
func NewCooldown(store CooldownStore) *Cooldown {
	return &Cooldown{store: store, now: time.Now}
}

// minTTL keeps rows around long enough for the prune job even when a
// rule configures a very short cooldown.
const minTTL = 60 * time.Second

// CheckAndRecord checks whether a dispatch for the key is allowed and,
// if so, records the current timestamp before the caller dispatches.
// Recording first means a dispatch failure still consumes the window,
// which is the accepted cost of blocking concurrent duplicate triggers.
// A cooldown of zero or less always allows and touches no state.
func (c *Cooldown) CheckAndRecord(ctx context.Context, identityHash, userID, command string, cooldownSeconds int) (Decision, error) {
	if cooldownSeconds <= 0 {
		return Decision{Allowed: true}, nil
	}

	nowMs := c.now().UnixMilli()
	windowMs := int64(cooldownSeconds) * 1000

	lastMs, ok, err := c.store.GetCooldown(ctx, identityHash, userID, command)
	if err != nil {
		return Decision{}, fmt.Errorf("cooldown lookup: %w", err)
	}

	if ok {
		elapsed := nowMs - lastMs
		if elapsed < windowMs {
			remaining := (windowMs - elapsed + 999) / 1000
			return Decision{RemainingSeconds: int(remaining)}, nil
		}
	}

	ttl := time.Duration(cooldownSeconds) * time.Second
	if ttl < minTTL {
		ttl = minTTL
	}
	if err := c.store.SetCooldown(ctx, identityHash, userID, command, nowMs, ttl); err != nil {
		return Decision{}, fmt.Errorf("cooldown record: %w", err)
	}

	return Decision{Allowed: true}, nil
}
