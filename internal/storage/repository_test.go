package storage

import (
	"context"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveBotUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bot := &Bot{IdentityHash: "abc123", Credential: "111:token", DisplayName: "demo"}
	if err := db.SaveBot(ctx, bot); err != nil {
		t.Fatalf("SaveBot() error = %v", err)
	}

	bot.DisplayName = "renamed"
	if err := db.SaveBot(ctx, bot); err != nil {
		t.Fatalf("SaveBot() upsert error = %v", err)
	}

	got, err := db.GetBot(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetBot() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetBot() returned nil for existing bot")
	}
	if got.DisplayName != "renamed" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "renamed")
	}
	if got.Credential != "111:token" {
		t.Errorf("Credential = %q, want %q", got.Credential, "111:token")
	}

	count, err := db.CountBots(ctx)
	if err != nil {
		t.Fatalf("CountBots() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountBots() = %d, want 1", count)
	}
}

func TestGetBotMissing(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetBot(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetBot() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetBot() = %+v, want nil", got)
	}
}

func TestDeleteBot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SaveBot(ctx, &Bot{IdentityHash: "h1", Credential: "c1"}); err != nil {
		t.Fatalf("SaveBot() error = %v", err)
	}
	if err := db.DeleteBot(ctx, "h1"); err != nil {
		t.Fatalf("DeleteBot() error = %v", err)
	}
	if err := db.DeleteBot(ctx, "h1"); err != ErrNotFound {
		t.Errorf("DeleteBot() on missing = %v, want ErrNotFound", err)
	}
}

func TestRuleSetRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rs := &RuleSet{
		Name: "greetings",
		Rules: map[string]string{
			"/start": "Welcome!",
			"/price": `{"body":"Price of {{1}}: {{2}}","cooldown":30}`,
		},
	}
	if err := db.SaveRuleSet(ctx, rs); err != nil {
		t.Fatalf("SaveRuleSet() error = %v", err)
	}
	if rs.ID == 0 {
		t.Fatal("SaveRuleSet() did not assign an ID")
	}

	got, err := db.GetRuleSet(ctx, rs.ID)
	if err != nil {
		t.Fatalf("GetRuleSet() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetRuleSet() returned nil for existing set")
	}
	if got.Rules["/start"] != "Welcome!" {
		t.Errorf("plain rule = %q, want %q", got.Rules["/start"], "Welcome!")
	}
	structured := got.Rules["/price"]
	if structured == "" || structured[0] != '{' {
		t.Errorf("structured rule lost object form: %q", structured)
	}

	got.Rules["/stop"] = "Bye"
	if err := db.SaveRuleSet(ctx, got); err != nil {
		t.Fatalf("SaveRuleSet() update error = %v", err)
	}
	again, err := db.GetRuleSet(ctx, rs.ID)
	if err != nil {
		t.Fatalf("GetRuleSet() after update error = %v", err)
	}
	if len(again.Rules) != 3 {
		t.Errorf("rule count = %d, want 3", len(again.Rules))
	}
}

func TestSaveRuleSetMissing(t *testing.T) {
	db := newTestDB(t)

	rs := &RuleSet{ID: 999, Name: "ghost", Rules: map[string]string{}}
	if err := db.SaveRuleSet(context.Background(), rs); err != ErrNotFound {
		t.Errorf("SaveRuleSet() on missing ID = %v, want ErrNotFound", err)
	}
}

func TestAssociationsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SaveBot(ctx, &Bot{IdentityHash: "bot1", Credential: "c"}); err != nil {
		t.Fatalf("SaveBot() error = %v", err)
	}

	base := &RuleSet{Name: "base", Rules: map[string]string{"/hi": "base hi", "/only": "base only"}}
	override := &RuleSet{Name: "override", Rules: map[string]string{"/hi": "override hi"}}
	for _, rs := range []*RuleSet{base, override} {
		if err := db.SaveRuleSet(ctx, rs); err != nil {
			t.Fatalf("SaveRuleSet(%s) error = %v", rs.Name, err)
		}
	}

	if err := db.SetAssociations(ctx, "bot1", []int64{base.ID, override.ID}); err != nil {
		t.Fatalf("SetAssociations() error = %v", err)
	}

	sets, err := db.GetAssociatedRuleSets(ctx, "bot1")
	if err != nil {
		t.Fatalf("GetAssociatedRuleSets() error = %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(sets))
	}
	if sets[0].Name != "base" || sets[1].Name != "override" {
		t.Errorf("order = [%s, %s], want [base, override]", sets[0].Name, sets[1].Name)
	}

	// Reversing the slice reverses the merge order.
	if err := db.SetAssociations(ctx, "bot1", []int64{override.ID, base.ID}); err != nil {
		t.Fatalf("SetAssociations() replace error = %v", err)
	}
	sets, err = db.GetAssociatedRuleSets(ctx, "bot1")
	if err != nil {
		t.Fatalf("GetAssociatedRuleSets() error = %v", err)
	}
	if sets[0].Name != "override" || sets[1].Name != "base" {
		t.Errorf("order after replace = [%s, %s], want [override, base]", sets[0].Name, sets[1].Name)
	}
}

func TestAssociationsCascadeOnDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SaveBot(ctx, &Bot{IdentityHash: "bot1", Credential: "c"}); err != nil {
		t.Fatalf("SaveBot() error = %v", err)
	}
	rs := &RuleSet{Name: "s", Rules: map[string]string{"/a": "b"}}
	if err := db.SaveRuleSet(ctx, rs); err != nil {
		t.Fatalf("SaveRuleSet() error = %v", err)
	}
	if err := db.SetAssociations(ctx, "bot1", []int64{rs.ID}); err != nil {
		t.Fatalf("SetAssociations() error = %v", err)
	}

	if err := db.DeleteRuleSet(ctx, rs.ID); err != nil {
		t.Fatalf("DeleteRuleSet() error = %v", err)
	}

	sets, err := db.GetAssociatedRuleSets(ctx, "bot1")
	if err != nil {
		t.Fatalf("GetAssociatedRuleSets() error = %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("got %d sets after cascade, want 0", len(sets))
	}
}

func TestCooldownLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.GetCooldown(ctx, "bot1", "u1", "/cmd"); err != nil || ok {
		t.Fatalf("GetCooldown() before set = (ok=%v, err=%v), want absent", ok, err)
	}

	now := time.Now().UnixMilli()
	if err := db.SetCooldown(ctx, "bot1", "u1", "/cmd", now, time.Minute); err != nil {
		t.Fatalf("SetCooldown() error = %v", err)
	}

	lastMs, ok, err := db.GetCooldown(ctx, "bot1", "u1", "/cmd")
	if err != nil {
		t.Fatalf("GetCooldown() error = %v", err)
	}
	if !ok || lastMs != now {
		t.Errorf("GetCooldown() = (%d, %v), want (%d, true)", lastMs, ok, now)
	}

	// A later dispatch overwrites the stored timestamp.
	later := now + 5000
	if err := db.SetCooldown(ctx, "bot1", "u1", "/cmd", later, time.Minute); err != nil {
		t.Fatalf("SetCooldown() upsert error = %v", err)
	}
	lastMs, ok, err = db.GetCooldown(ctx, "bot1", "u1", "/cmd")
	if err != nil || !ok || lastMs != later {
		t.Errorf("GetCooldown() after upsert = (%d, %v, %v), want (%d, true, nil)", lastMs, ok, err, later)
	}
}

func TestCooldownExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Negative TTL makes the row already expired.
	if err := db.SetCooldown(ctx, "bot1", "u1", "/cmd", time.Now().UnixMilli(), -time.Minute); err != nil {
		t.Fatalf("SetCooldown() error = %v", err)
	}

	if _, ok, err := db.GetCooldown(ctx, "bot1", "u1", "/cmd"); err != nil || ok {
		t.Errorf("GetCooldown() on expired row = (ok=%v, err=%v), want absent", ok, err)
	}

	deleted, err := db.DeleteExpiredCooldowns(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredCooldowns() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteExpiredCooldowns() = %d, want 1", deleted)
	}

	count, err := db.CountCooldowns(ctx)
	if err != nil {
		t.Fatalf("CountCooldowns() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountCooldowns() = %d, want 0", count)
	}
}
