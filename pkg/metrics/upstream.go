package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records retail API call latency and outcomes.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of retail API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Retail API calls by operation and status class.",
	}, []string{"operation", "status"})
	reg.MustRegister(duration, requests)
	return &UpstreamMetrics{duration: duration, requests: requests}
}

// ObserveUpstream records one call; status 0 means the request never got a response.
func (u *UpstreamMetrics) ObserveUpstream(operation string, status int, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	u.duration.WithLabelValues(op).Observe(duration.Seconds())
	u.requests.WithLabelValues(op, statusClass(status)).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
