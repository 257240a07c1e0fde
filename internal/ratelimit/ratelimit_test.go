package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	limiter := New(3, 1)

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if limiter.Allow() {
		t.Error("request allowed with empty bucket")
	}
}

func TestLimiterRefill(t *testing.T) {
	limiter := New(1, 100)

	if !limiter.Allow() {
		t.Fatal("first request denied")
	}
	if limiter.Allow() {
		t.Fatal("second request allowed before refill")
	}

	time.Sleep(20 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("request denied after refill interval")
	}
}

func TestLimiterWaitContextCancel(t *testing.T) {
	limiter := New(1, 0.001)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestLimiterWaitAcquires(t *testing.T) {
	limiter := New(1, 100)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := limiter.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v, want nil", err)
	}
}

func TestPerKeyLimiterIsolation(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{
		MaxTokens:     1,
		RefillRate:    0.001,
		CleanupPeriod: time.Hour,
	})
	defer pkl.Stop()

	if !pkl.Allow("user1") {
		t.Fatal("user1 first request denied")
	}
	if pkl.Allow("user1") {
		t.Error("user1 second request allowed, want denied")
	}
	if !pkl.Allow("user2") {
		t.Error("user2 denied by user1's bucket")
	}
}

func TestPerKeyLimiterEmptyKey(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{
		MaxTokens:     1,
		RefillRate:    0.001,
		CleanupPeriod: time.Hour,
	})
	defer pkl.Stop()

	for i := 0; i < 5; i++ {
		if !pkl.Allow("") {
			t.Fatal("empty key denied")
		}
	}
	if pkl.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0 for empty keys", pkl.ActiveCount())
	}
}

func TestPerKeyLimiterOnDrop(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{
		MaxTokens:     1,
		RefillRate:    0.001,
		CleanupPeriod: time.Hour,
	})
	defer pkl.Stop()

	drops := 0
	pkl.OnDrop(func() { drops++ })

	pkl.Allow("user1")
	pkl.Allow("user1")
	if drops != 1 {
		t.Errorf("drops = %d, want 1", drops)
	}
}

func TestPerKeyLimiterStopIdempotent(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{
		MaxTokens:     1,
		RefillRate:    1,
		CleanupPeriod: time.Hour,
	})
	pkl.Stop()
	pkl.Stop()
}
