package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestUpstreamMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewUpstreamMetrics(reg)
	op := "list variants"
	metrics.ObserveUpstream(op, http.StatusOK, 250*time.Millisecond)
	metrics.ObserveUpstream(op, http.StatusBadGateway, 10*time.Millisecond)
	metrics.ObserveUpstream(op, 0, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, status := range []string{"2xx", "5xx", "transport_error"} {
		if got, err := fetchCounterValue(mfs, "upstream_requests_total", "status", status); err != nil {
			t.Fatalf("fetch %s: %v", status, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", status, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "upstream_request_duration_seconds", "operation", op); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCheckoutMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.IncOutcome("succeeded")
	metrics.IncOutcome("succeeded")
	metrics.IncOutcome("")
	metrics.ObserveAmount(18)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_attempts_total", "outcome", "succeeded"); err != nil || got != 2 {
		t.Fatalf("expected succeeded=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_attempts_total", "outcome", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown=1, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var upstream *UpstreamMetrics
	upstream.ObserveUpstream("x", 200, time.Second)
	var checkout *CheckoutMetrics
	checkout.IncOutcome("failed")
	NewCheckoutMetrics(nil).ObserveAmount(1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
