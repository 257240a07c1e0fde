// Package config provides centralized timeout constants for the application.
//
// These values are tuned around two external constraints:
//   - Telegram delivers each update once and retries on any non-2xx
//     response, so the webhook must answer quickly and always with 200.
//   - Outbound Bot API calls (sendMessage, sendPhoto, ...) dominate
//     event processing time; a single event performs up to four of them
//     (wait message, dispatch, fallback, cleanup).
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// An event performs at most four sequential Bot API calls plus one
	// optional redirect resolution, each bounded by TelegramAPICall /
	// FetchResolve, so 45s leaves headroom without holding Telegram's
	// delivery connection open indefinitely.
	WebhookProcessing = 45 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Telegram sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	// Must accommodate synchronous event processing plus response writing.
	WebhookHTTPWrite = 50 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Outbound call timeouts
const (
	// TelegramAPICall bounds one Bot API HTTP round trip.
	// sendPhoto with a remote URL makes Telegram fetch the file server-side,
	// which can be slow for large images.
	TelegramAPICall = 10 * time.Second

	// FetchResolve bounds the redirect-following resolution of a dynamic
	// image URL. On expiry the dispatch is treated as failed; it must
	// never hang an event.
	FetchResolve = 5 * time.Second
)

// Background task intervals
const (
	// CooldownPruneInterval is how often expired cooldown rows are removed.
	// Expired rows are already invisible to readers, pruning only bounds
	// table growth.
	CooldownPruneInterval = 10 * time.Minute

	// CooldownPruneInitialDelay lets the server stabilize before the
	// first prune run.
	CooldownPruneInitialDelay = 1 * time.Minute

	// StoreMetricsInterval is how often entity-count gauges are refreshed.
	StoreMetricsInterval = 5 * time.Minute
)
