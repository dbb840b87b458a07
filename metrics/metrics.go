// Package metrics exposes Prometheus metrics for the comparison backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/mhpenta/showdown"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the collection of backend metrics, registered on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ComparisonsTotal    *prometheus.CounterVec
	ComparisonDuration  prometheus.Histogram
	ComparisonsInFlight prometheus.Gauge
	ProviderResults     *prometheus.CounterVec
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.ComparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showdown_comparisons_total",
			Help: "Comparisons handled, by outcome (success, invalid, failed)",
		},
		[]string{"outcome"},
	)

	m.ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "showdown_comparison_duration_seconds",
			Help:    "Time to resolve every provider of a comparison",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	m.ComparisonsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "showdown_comparisons_in_flight",
			Help: "Comparisons currently being generated",
		},
	)

	m.ProviderResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showdown_provider_results_total",
			Help: "Per-provider results, by provider and status",
		},
		[]string{"provider", "status"},
	)

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ComparisonsTotal,
		m.ComparisonDuration,
		m.ComparisonsInFlight,
		m.ProviderResults,
	)

	return m
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveComparison records a finished comparison and each of its provider results.
func (m *Metrics) ObserveComparison(results []showdown.ProviderResult, err error, elapsed time.Duration) {
	switch {
	case showdown.IsValidationError(err):
		m.ComparisonsTotal.WithLabelValues("invalid").Inc()
		return
	case err != nil:
		m.ComparisonsTotal.WithLabelValues("failed").Inc()
	default:
		m.ComparisonsTotal.WithLabelValues("success").Inc()
	}

	m.ComparisonDuration.Observe(elapsed.Seconds())
	for _, r := range results {
		m.ProviderResults.WithLabelValues(r.ProviderID, string(r.Status)).Inc()
	}
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
