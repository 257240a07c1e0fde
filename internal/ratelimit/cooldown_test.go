package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memCooldownStore struct {
	entries map[string]int64
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemCooldownStore() *memCooldownStore {
	return &memCooldownStore{
		entries: make(map[string]int64),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *memCooldownStore) key(hash, user, command string) string {
	return hash + "/" + user + "/" + command
}

func (m *memCooldownStore) GetCooldown(_ context.Context, hash, user, command string) (int64, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	lastMs, ok := m.entries[m.key(hash, user, command)]
	return lastMs, ok, nil
}

func (m *memCooldownStore) SetCooldown(_ context.Context, hash, user, command string, lastMs int64, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[m.key(hash, user, command)] = lastMs
	m.ttls[m.key(hash, user, command)] = ttl
	return nil
}

func newTestCooldown(store CooldownStore, at time.Time) *Cooldown {
	c := NewCooldown(store)
	c.now = func() time.Time { return at }
	return c
}

func TestCheckAndRecordZeroCooldownBypasses(t *testing.T) {
	store := newMemCooldownStore()
	c := NewCooldown(store)

	for _, seconds := range []int{0, -5} {
		d, err := c.CheckAndRecord(context.Background(), "b", "u", "/cmd", seconds)
		if err != nil {
			t.Fatalf("CheckAndRecord(%d) error = %v", seconds, err)
		}
		if !d.Allowed {
			t.Errorf("CheckAndRecord(%d).Allowed = false, want true", seconds)
		}
	}
	if len(store.entries) != 0 {
		t.Errorf("store has %d entries, want 0", len(store.entries))
	}
}

func TestCheckAndRecordWindow(t *testing.T) {
	store := newMemCooldownStore()
	base := time.Now()

	c := newTestCooldown(store, base)
	d, err := c.CheckAndRecord(context.Background(), "b", "u", "/cmd", 30)
	if err != nil {
		t.Fatalf("first CheckAndRecord() error = %v", err)
	}
	if !d.Allowed {
		t.Fatal("first call denied, want allowed")
	}

	// Ten seconds in: denied with 20 remaining.
	c.now = func() time.Time { return base.Add(10 * time.Second) }
	d, err = c.CheckAndRecord(context.Background(), "b", "u", "/cmd", 30)
	if err != nil {
		t.Fatalf("second CheckAndRecord() error = %v", err)
	}
	if d.Allowed {
		t.Fatal("second call allowed inside window, want denied")
	}
	if d.RemainingSeconds != 20 {
		t.Errorf("RemainingSeconds = %d, want 20", d.RemainingSeconds)
	}

	// Sub-second remainder rounds up.
	c.now = func() time.Time { return base.Add(29*time.Second + 500*time.Millisecond) }
	d, _ = c.CheckAndRecord(context.Background(), "b", "u", "/cmd", 30)
	if d.Allowed || d.RemainingSeconds != 1 {
		t.Errorf("near-expiry decision = %+v, want denied with 1s remaining", d)
	}

	// After the window: allowed again.
	c.now = func() time.Time { return base.Add(31 * time.Second) }
	d, err = c.CheckAndRecord(context.Background(), "b", "u", "/cmd", 30)
	if err != nil {
		t.Fatalf("post-window CheckAndRecord() error = %v", err)
	}
	if !d.Allowed {
		t.Error("post-window call denied, want allowed")
	}
}

func TestCheckAndRecordKeysAreIndependent(t *testing.T) {
	store := newMemCooldownStore()
	c := newTestCooldown(store, time.Now())

	if d, _ := c.CheckAndRecord(context.Background(), "b", "u1", "/cmd", 30); !d.Allowed {
		t.Fatal("u1 denied, want allowed")
	}
	if d, _ := c.CheckAndRecord(context.Background(), "b", "u2", "/cmd", 30); !d.Allowed {
		t.Error("u2 denied by u1's window")
	}
	if d, _ := c.CheckAndRecord(context.Background(), "b", "u1", "/other", 30); !d.Allowed {
		t.Error("/other denied by /cmd's window")
	}
}

func TestCheckAndRecordTTLFloor(t *testing.T) {
	store := newMemCooldownStore()
	c := newTestCooldown(store, time.Now())

	if _, err := c.CheckAndRecord(context.Background(), "b", "u", "/short", 5); err != nil {
		t.Fatalf("CheckAndRecord() error = %v", err)
	}
	if ttl := store.ttls[store.key("b", "u", "/short")]; ttl != 60*time.Second {
		t.Errorf("short cooldown TTL = %v, want 60s floor", ttl)
	}

	if _, err := c.CheckAndRecord(context.Background(), "b", "u", "/long", 300); err != nil {
		t.Fatalf("CheckAndRecord() error = %v", err)
	}
	if ttl := store.ttls[store.key("b", "u", "/long")]; ttl != 300*time.Second {
		t.Errorf("long cooldown TTL = %v, want 300s", ttl)
	}
}

func TestCheckAndRecordStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	store := newMemCooldownStore()
	store.getErr = boom
	c := NewCooldown(store)
	if _, err := c.CheckAndRecord(context.Background(), "b", "u", "/cmd", 30); !errors.Is(err, boom) {
		t.Errorf("lookup error = %v, want wrapped store error", err)
	}

	store = newMemCooldownStore()
	store.setErr = boom
	c = NewCooldown(store)
	if _, err := c.CheckAndRecord(context.Background(), "b", "u", "/cmd", 30); !errors.Is(err, boom) {
		t.Errorf("record error = %v, want wrapped store error", err)
	}
}
