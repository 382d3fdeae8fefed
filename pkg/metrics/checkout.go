package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts checkout attempts by outcome and the amounts submitted.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	amount   prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	amount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_submitted_amount",
		Help:    "Final amount of submitted sales.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	reg.MustRegister(attempts, amount)
	return &CheckoutMetrics{attempts: attempts, amount: amount}
}

// IncOutcome increments the counter for outcome (e.g. "succeeded", "failed", "EMPTY_CART").
func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveAmount records the amount of a submitted sale.
func (c *CheckoutMetrics) ObserveAmount(amount float64) {
	if c == nil || c.amount == nil {
		return
	}
	c.amount.Observe(amount)
}
