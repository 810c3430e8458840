package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records webhook reconciliation and dispatcher outcomes.
type PaymentMetrics struct {
	webhookDuration *prometheus.HistogramVec
	webhookOutcome  *prometheus.CounterVec
	dispatchSuccess *prometheus.CounterVec
	dispatchFailure *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_processing_seconds",
		Help:    "Duration of gateway webhook reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	webhookOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Gateway notifications by reconciliation outcome.",
	}, []string{"outcome"})
	dispatchSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dispatch_success",
		Help: "Successfully dispatched outbox events.",
	}, []string{"event_type"})
	dispatchFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dispatch_failure",
		Help: "Outbox events whose handlers exhausted retries.",
	}, []string{"event_type"})
	reg.MustRegister(webhookDuration, webhookOutcome, dispatchSuccess, dispatchFailure)
	return &PaymentMetrics{
		webhookDuration: webhookDuration,
		webhookOutcome:  webhookOutcome,
		dispatchSuccess: dispatchSuccess,
		dispatchFailure: dispatchFailure,
	}
}

// ObserveWebhook records the duration of one reconciliation pass.
func (p *PaymentMetrics) ObserveWebhook(status string, duration time.Duration) {
	if p == nil || p.webhookDuration == nil {
		return
	}
	p.webhookDuration.WithLabelValues(normalizeLabel(status)).Observe(duration.Seconds())
}

// IncWebhookOutcome counts a reconciliation outcome (applied, replay, rejected...).
func (p *PaymentMetrics) IncWebhookOutcome(outcome string) {
	if p == nil || p.webhookOutcome == nil {
		return
	}
	p.webhookOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDispatchSuccess counts a dispatched outbox event.
func (p *PaymentMetrics) IncDispatchSuccess(eventType string) {
	if p == nil || p.dispatchSuccess == nil {
		return
	}
	p.dispatchSuccess.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDispatchFailure counts an outbox event that exhausted its retries.
func (p *PaymentMetrics) IncDispatchFailure(eventType string) {
	if p == nil || p.dispatchFailure == nil {
		return
	}
	p.dispatchFailure.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
