package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewMultiHandler_NilFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, nil)

	mh := NewMultiHandler(nil, jsonHandler, nil)
	if mh == nil {
		t.Fatal("NewMultiHandler returned nil")
	}
	if len(mh.handlers) != 1 {
		t.Errorf("Expected 1 handler after filtering nils, got %d", len(mh.handlers))
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	debugHandler := slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelDebug})
	errorHandler := slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError})

	mh := NewMultiHandler(debugHandler, errorHandler)

	tests := []struct {
		level    slog.Level
		expected bool
	}{
		{slog.LevelDebug, true},
		{slog.LevelInfo, true},
		{slog.LevelError, true},
	}

	for _, tt := range tests {
		if got := mh.Enabled(context.Background(), tt.level); got != tt.expected {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.expected)
		}
	}
}

func TestMultiHandler_FanOut(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	h1 := slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError})

	log := slog.New(NewMultiHandler(h1, h2))
	log.Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf1.Bytes(), &entry); err != nil {
		t.Fatalf("first handler did not receive record: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want %q", entry["msg"], "hello")
	}
	if buf2.Len() != 0 {
		t.Errorf("error-level handler received info record: %s", buf2.String())
	}
}
