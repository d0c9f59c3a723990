package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "burgnice"

// Operation names shared by the storefront services.
const (
	OpCartSync       = "cart_sync"
	OpCheckoutSubmit = "checkout_submit"
	OpPaymentVerify  = "payment_verify"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
	OutcomeUnpaid  = "unpaid"
)

// StorefrontMetrics records latency and outcomes of the cart and checkout
// operations that call the restaurant backend.
type StorefrontMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewStorefrontMetrics registers the metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of storefront operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_total",
		Help:      "Storefront operations by outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &StorefrontMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *StorefrontMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for an operation outcome.
func (m *StorefrontMetrics) IncOutcome(operation, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// Track returns a func that records the elapsed time and the outcome chosen
// by the caller.
func (m *StorefrontMetrics) Track(operation string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		m.ObserveDuration(operation, time.Since(start))
		m.IncOutcome(operation, outcome)
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
