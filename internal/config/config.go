// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, rate limits, timeouts, and storage settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// PublicBaseURL is the externally reachable base URL of this server,
	// used when registering bot webhooks with Telegram
	// (e.g. "https://hub.example.com").
	PublicBaseURL string

	// Data Configuration
	DataDir string // Data directory for SQLite database

	// Telegram Configuration
	TelegramAPITimeout time.Duration // HTTP client timeout for Bot API calls
	GlobalRateRPS      float64       // Outbound Bot API pacing (requests per second)

	// Webhook flood protection (token bucket, per user)
	UserRateLimitBurst        float64
	UserRateLimitRefillPerSec float64

	// URL resolution (redirect-following for dynamic image endpoints)
	ResolveRedirects bool
	FetchTimeout     time.Duration

	// Cooldown store maintenance
	CooldownPruneInterval time.Duration

	// Admin API Authentication (empty password disables the admin API)
	AdminUser string
	AdminPass string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Sentry (Better Stack Errors) Configuration
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Logs Configuration
	BetterStackToken    string
	BetterStackEndpoint string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Server Configuration
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),
		PublicBaseURL:   strings.TrimRight(getEnv(EnvPublicBaseURL, ""), "/"),

		// Data Configuration
		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		// Telegram Configuration
		TelegramAPITimeout: getDurationEnv(EnvTelegramAPITimeout, TelegramAPICall),
		GlobalRateRPS:      getFloatEnv(EnvGlobalRateRPS, 30.0), // Bot API allows ~30 msg/s overall

		// Webhook flood protection
		UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 10.0),
		UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.5), // 1 per 2s

		// URL resolution
		ResolveRedirects: getBoolEnv(EnvResolveRedirects, false),
		FetchTimeout:     getDurationEnv(EnvFetchTimeout, FetchResolve),

		// Cooldown store maintenance
		CooldownPruneInterval: getDurationEnv(EnvCooldownPruneInterval, CooldownPruneInterval),

		// Admin API Authentication
		AdminUser: getEnv(EnvAdminUser, "admin"),
		AdminPass: getEnv(EnvAdminPass, ""),

		// Metrics Authentication
		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		// Sentry
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		// Better Stack Logs
		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir is required"))
	}
	if c.PublicBaseURL != "" &&
		!strings.HasPrefix(c.PublicBaseURL, "http://") &&
		!strings.HasPrefix(c.PublicBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("public base URL %q must start with http:// or https://", c.PublicBaseURL))
	}
	// Saving a bot registers its webhook at PublicBaseURL; without it
	// every save would fail at Telegram, so catch that at startup.
	if c.AdminEnabled() && c.PublicBaseURL == "" {
		errs = append(errs, errors.New("public base URL is required when the admin API is enabled"))
	}
	if c.GlobalRateRPS <= 0 {
		errs = append(errs, errors.New("global rate RPS must be positive"))
	}
	if c.UserRateLimitBurst <= 0 || c.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, errors.New("user rate limit burst and refill must be positive"))
	}
	if c.SentryToken != "" && c.SentryHost == "" {
		errs = append(errs, errors.New("sentry host is required when sentry token is set"))
	}

	return errors.Join(errs...)
}

// AdminEnabled reports whether the admin API should be mounted.
// An empty admin password disables the API entirely rather than
// exposing it unauthenticated.
func (c *Config) AdminEnabled() bool {
	return c.AdminPass != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "replyhub.db")
}

// WebhookURL returns the public webhook URL for a bot identity hash.
func (c *Config) WebhookURL(identityHash string) string {
	return c.PublicBaseURL + "/webhook/" + identityHash
}

// getEnv retrieves string environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
