package ctxutil

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	id, ok := GetRequestID(ctx)
	if !ok || id != "req-123" {
		t.Errorf("GetRequestID() = (%q, %v), want (req-123, true)", id, ok)
	}
}

func TestRequestIDMissing(t *testing.T) {
	id, ok := GetRequestID(context.Background())
	if ok || id != "" {
		t.Errorf("GetRequestID() = (%q, %v), want empty and false", id, ok)
	}
}
