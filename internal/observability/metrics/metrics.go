package metrics

import "github.com/prometheus/client_golang/prometheus"

// TenancyMetrics exposes counters for tenant scoping and background job flows.
type TenancyMetrics struct {
	scopedReads   *prometheus.CounterVec
	unscopedReads prometheus.Counter
	bypassedReads prometheus.Counter
	contextErrors *prometheus.CounterVec
	jobsTotal     *prometheus.CounterVec
}

func NewTenancyMetrics(reg prometheus.Registerer) *TenancyMetrics {
	m := &TenancyMetrics{
		scopedReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowmed",
			Subsystem: "tenancy",
			Name:      "scoped_reads_total",
			Help:      "Reads with an injected tenant predicate",
		}, []string{"table"}),
		unscopedReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glowmed",
			Subsystem: "tenancy",
			Name:      "unscoped_reads_total",
			Help:      "Reads executed with no tenant established",
		}),
		bypassedReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glowmed",
			Subsystem: "tenancy",
			Name:      "bypassed_reads_total",
			Help:      "Reads executed under an unbound scope",
		}),
		contextErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowmed",
			Subsystem: "tenancy",
			Name:      "context_errors_total",
			Help:      "Context plumbing defects surfaced",
		}, []string{"kind"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowmed",
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Background jobs processed",
		}, []string{"type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scopedReads, m.unscopedReads, m.bypassedReads, m.contextErrors, m.jobsTotal)
	return m
}

func (m *TenancyMetrics) ObserveScopedRead(table string) {
	if m == nil {
		return
	}
	m.scopedReads.WithLabelValues(table).Inc()
}

func (m *TenancyMetrics) ObserveUnscopedRead() {
	if m == nil {
		return
	}
	m.unscopedReads.Inc()
}

func (m *TenancyMetrics) ObserveBypassedRead() {
	if m == nil {
		return
	}
	m.bypassedReads.Inc()
}

func (m *TenancyMetrics) ObserveContextError(kind string) {
	if m == nil {
		return
	}
	m.contextErrors.WithLabelValues(kind).Inc()
}

func (m *TenancyMetrics) ObserveJob(jobType, status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(jobType, status).Inc()
}
