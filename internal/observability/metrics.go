package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the Prometheus instruments exposed by the stub platform.
// They exist for debugging long local runs; the hermetic tests do not
// assert on them.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AlertsProcessedTotal    *prometheus.CounterVec
	AlertsDeduplicatedTotal prometheus.Counter
	JobsCreatedTotal        prometheus.Counter

	registry *prometheus.Registry
}

// InitMetrics creates and registers the stub platform instruments on a
// private registry, so repeated stub instances in one test binary do not
// collide on the default registry.
func InitMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dkqa_stub_http_requests_total",
			Help: "Total number of HTTP requests handled by the stub platform.",
		}, []string{"service", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dkqa_stub_http_request_duration_seconds",
			Help:    "Stub request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"service", "method"}),
		AlertsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dkqa_stub_alerts_processed_total",
			Help: "Alerts processed by the stub request router, by mode.",
		}, []string{"mode"}),
		AlertsDeduplicatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dkqa_stub_alerts_deduplicated_total",
			Help: "Alerts dropped by the dedup window.",
		}),
		JobsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dkqa_stub_jobs_created_total",
			Help: "Jobs created by the stub task service.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AlertsProcessedTotal,
		m.AlertsDeduplicatedTotal,
		m.JobsCreatedTotal,
	)

	return m
}

// Handler returns the /metrics endpoint for the stub's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
