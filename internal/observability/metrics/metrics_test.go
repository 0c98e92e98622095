package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestTenancyMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTenancyMetrics(reg)
	m.ObserveScopedRead("patients")
	m.ObserveScopedRead("patients")
	m.ObserveUnscopedRead()
	m.ObserveBypassedRead()
	m.ObserveContextError("token_reuse")
	m.ObserveJob("patients.refresh", "ok")

	var metric dto.Metric
	if err := m.scopedReads.WithLabelValues("patients").Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 scoped reads, got %v", got)
	}
}

func TestTenancyMetricsNilSafe(t *testing.T) {
	var m *TenancyMetrics
	m.ObserveScopedRead("patients")
	m.ObserveUnscopedRead()
	m.ObserveBypassedRead()
	m.ObserveContextError("kind")
	m.ObserveJob("type", "ok")
}
