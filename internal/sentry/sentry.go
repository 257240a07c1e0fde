// Package sentry wires the Sentry SDK to Better Stack's error
// collection backend.
package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds error tracking configuration.
type Config struct {
	// Token is the Better Stack Errors application token. Empty
	// disables error tracking entirely.
	Token string

	// Host is the Better Stack ingesting host, e.g. "errors.betterstack.com".
	Host string

	// Environment names the deployment, e.g. "production".
	Environment string

	// Release is the application version being deployed.
	Release string

	// SampleRate controls error sampling (0 defaults to full sampling).
	SampleRate float64
}

// Initialize sets up the SDK. A missing token disables tracking and
// returns nil. Better Stack ignores the Sentry project ID, but the SDK
// requires one, so the DSN carries a fixed /1.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("error tracking host is required when token is set")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
}

// Flush drains buffered events, returning false on timeout. Called
// during shutdown.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether the SDK was initialized with a client.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException reports an error.
func CaptureException(err error) {
	sentry.CaptureException(err)
}
