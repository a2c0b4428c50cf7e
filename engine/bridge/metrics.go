package bridge

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeSuccess       = "success"
	outcomeError         = "error"
	outcomeInvalid       = "invalid_request"
	outcomeTriggerFailed = "trigger_failed"
	outcomeRetrieveFail  = "retrieve_failed"
	outcomeRunFailed     = "run_failed"
)

// Metrics records discovery and invocation activity in a private registry.
type Metrics struct {
	registry           *prometheus.Registry
	discoveries        *prometheus.CounterVec
	discoveredTools    prometheus.Gauge
	discoveryFailures  prometheus.Counter
	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenario_mcp",
			Name:      "discoveries_total",
			Help:      "Tool discovery runs by outcome.",
		}, []string{"outcome"}),
		discoveredTools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scenario_mcp",
			Name:      "discovered_tools",
			Help:      "Tools returned by the most recent successful discovery.",
		}),
		discoveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenario_mcp",
			Name:      "discovery_failures_total",
			Help:      "Scenarios dropped from discovery because their interface could not be loaded.",
		}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenario_mcp",
			Name:      "invocations_total",
			Help:      "Tool invocations by outcome.",
		}, []string{"outcome"}),
		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scenario_mcp",
			Name:      "invocation_duration_seconds",
			Help:      "Time from trigger to normalized result.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.discoveries,
		m.discoveredTools,
		m.discoveryFailures,
		m.invocations,
		m.invocationDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) discoveryFinished(outcome string, tools int) {
	m.discoveries.WithLabelValues(outcome).Inc()
	if outcome == outcomeSuccess {
		m.discoveredTools.Set(float64(tools))
	}
}

func (m *Metrics) scenarioDropped() {
	m.discoveryFailures.Inc()
}

func (m *Metrics) invocationFinished(outcome string, start time.Time) {
	m.invocations.WithLabelValues(outcome).Inc()
	m.invocationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
