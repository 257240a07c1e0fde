package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Dispatch metrics
	DispatchTotal         *prometheus.CounterVec
	DispatchFallbackTotal prometheus.Counter

	// Cooldown metrics
	CooldownDeniedTotal prometheus.Counter

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Store metrics
	StoreEntities *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "replyhub_webhook_requests_total",
				Help: "Total number of webhook events by event type and outcome",
			},
			[]string{"event_type", "status"}, // status: success, error, no_rule, unknown_bot, denied, malformed
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "replyhub_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10}, // dispatch includes outbound API round trips
			},
			[]string{"event_type"}, // event_type: message, callback
		),

		DispatchTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "replyhub_dispatch_total",
				Help: "Total outbound reply dispatches by Bot API method and status",
			},
			[]string{"method", "status"}, // method: sendMessage, sendPhoto, sendDocument
		),

		DispatchFallbackTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "replyhub_dispatch_fallback_total",
				Help: "Total dispatches degraded to the plain-text fallback",
			},
		),

		CooldownDeniedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "replyhub_cooldown_denied_total",
				Help: "Total events denied by a per-command cooldown window",
			},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "replyhub_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, global
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "replyhub_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"},
		),

		StoreEntities: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "replyhub_store_entities",
				Help: "Current number of stored entities by kind",
			},
			[]string{"entity"}, // entity: bots, rule_sets, cooldowns
		),
	}

	return m
}

// RecordWebhook records a webhook event outcome and duration
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	if duration > 0 {
		m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
	}
}

// RecordDispatch records an outbound dispatch attempt
func (m *Metrics) RecordDispatch(method, status string) {
	m.DispatchTotal.WithLabelValues(method, status).Inc()
}

// RecordFallback records a degrade to the plain-text fallback path
func (m *Metrics) RecordFallback() {
	m.DispatchFallbackTotal.Inc()
}

// RecordCooldownDenied records a cooldown denial
func (m *Metrics) RecordCooldownDenied() {
	m.CooldownDeniedTotal.Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// SetStoreEntities updates the stored entity count gauge
func (m *Metrics) SetStoreEntities(entity string, count int) {
	m.StoreEntities.WithLabelValues(entity).Set(float64(count))
}
