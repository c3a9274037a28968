package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProviderMetrics exposes counters/histograms for LLM provider calls and
// report sectioning.
type ProviderMetrics struct {
	requestsTotal      *prometheus.CounterVec
	latency            *prometheus.HistogramVec
	sectioningFailures *prometheus.CounterVec
	workflowsTotal     *prometheus.CounterVec
}

func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	m := &ProviderMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woundlens",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total LLM provider requests",
		}, []string{"provider", "operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "woundlens",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of LLM provider requests",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"provider", "operation"}),
		sectioningFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woundlens",
			Name:      "sectioning_failures_total",
			Help:      "Initial analyses whose text contained no recognized section header",
		}, []string{"model"}),
		workflowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "woundlens",
			Subsystem: "analysis",
			Name:      "workflow_steps_total",
			Help:      "Coordinator workflow steps by outcome",
		}, []string{"step", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency, m.sectioningFailures, m.workflowsTotal)
	return m
}

func (m *ProviderMetrics) ObserveProviderCall(provider, operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.latency.WithLabelValues(provider, operation).Observe(seconds)
}

func (m *ProviderMetrics) ObserveSectioningFailure(model string) {
	if m == nil {
		return
	}
	m.sectioningFailures.WithLabelValues(model).Inc()
}

func (m *ProviderMetrics) ObserveWorkflowStep(step string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.workflowsTotal.WithLabelValues(step, status).Inc()
}
