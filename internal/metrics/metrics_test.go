package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	if m == nil {
		t.Fatal("New() returned nil")
	}
}

func TestRecordWebhook(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordWebhook("message", "success", 0.05)
	m.RecordWebhook("message", "success", 0.1)
	m.RecordWebhook("callback", "no_rule", 0)

	if got := testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("message", "success")); got != 2 {
		t.Errorf("message/success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("callback", "no_rule")); got != 1 {
		t.Errorf("callback/no_rule count = %v, want 1", got)
	}
}

func TestRecordDispatchAndFallback(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordDispatch("sendPhoto", "success")
	m.RecordDispatch("sendPhoto", "error")
	m.RecordFallback()

	if got := testutil.ToFloat64(m.DispatchTotal.WithLabelValues("sendPhoto", "error")); got != 1 {
		t.Errorf("sendPhoto/error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DispatchFallbackTotal); got != 1 {
		t.Errorf("fallback count = %v, want 1", got)
	}
}

func TestSetStoreEntities(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetStoreEntities("bots", 3)
	m.SetStoreEntities("bots", 5)

	if got := testutil.ToFloat64(m.StoreEntities.WithLabelValues("bots")); got != 5 {
		t.Errorf("bots gauge = %v, want 5", got)
	}
}
