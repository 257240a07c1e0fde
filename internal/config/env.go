// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "REPLYHUB_PORT"
	EnvLogLevel        = "REPLYHUB_LOG_LEVEL"
	EnvShutdownTimeout = "REPLYHUB_SHUTDOWN_TIMEOUT"
	EnvPublicBaseURL   = "REPLYHUB_PUBLIC_BASE_URL"

	// Data
	EnvDataDir = "REPLYHUB_DATA_DIR"

	// Telegram
	EnvTelegramAPITimeout = "REPLYHUB_TELEGRAM_API_TIMEOUT"
	EnvGlobalRateRPS      = "REPLYHUB_GLOBAL_RATE_RPS"

	// Rate Limits
	EnvUserRateBurst  = "REPLYHUB_USER_RATE_BURST"
	EnvUserRateRefill = "REPLYHUB_USER_RATE_REFILL"

	// URL Resolution
	EnvResolveRedirects = "REPLYHUB_RESOLVE_REDIRECTS"
	EnvFetchTimeout     = "REPLYHUB_FETCH_TIMEOUT"

	// Background Tasks
	EnvCooldownPruneInterval = "REPLYHUB_COOLDOWN_PRUNE_INTERVAL"

	// Admin API
	EnvAdminUser = "REPLYHUB_ADMIN_USER"
	EnvAdminPass = "REPLYHUB_ADMIN_PASS"

	// Metrics Auth
	EnvMetricsUsername = "REPLYHUB_METRICS_USERNAME"
	EnvMetricsPassword = "REPLYHUB_METRICS_PASSWORD"

	// Sentry Feature
	EnvSentryToken       = "REPLYHUB_SENTRY_TOKEN"
	EnvSentryHost        = "REPLYHUB_SENTRY_HOST"
	EnvSentryEnvironment = "REPLYHUB_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "REPLYHUB_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "REPLYHUB_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "REPLYHUB_BETTERSTACK_ENDPOINT"
)
