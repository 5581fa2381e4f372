package syncer

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MKhiriev/go-auth-keeper/models"
)

const metricsNamespace = "authkeeper"

// Metrics exposes engine activity as Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	pending       prometheus.Gauge
	processing    prometheus.Gauge
	passes        *prometheus.CounterVec
	passDuration  prometheus.Histogram
	operations    *prometheus.CounterVec
	backendErrors *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
}

// NewMetrics creates the engine metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "pending_operations",
			Help:      "Number of operations waiting to be flushed.",
		}),
		processing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "processing",
			Help:      "1 while a flush pass is running.",
		}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "passes_total",
			Help:      "Flush passes by trigger.",
		}, []string{"trigger"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "pass_duration_seconds",
			Help:      "Duration of flush passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "operations_total",
			Help:      "Attempted operations by outcome.",
		}, []string{"outcome"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "backend_errors_total",
			Help:      "Backend write errors by backend and kind.",
		}, []string{"backend", "kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "fallbacks_total",
			Help:      "Fallback markers recorded on operation results.",
		}, []string{"marker"}),
	}

	m.registry.MustRegister(
		m.pending,
		m.processing,
		m.passes,
		m.passDuration,
		m.operations,
		m.backendErrors,
		m.fallbacks,
	)

	return m
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) setProcessing(on bool) {
	if m == nil {
		return
	}
	if on {
		m.processing.Set(1)
		return
	}
	m.processing.Set(0)
}

func (m *Metrics) observePass(trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(trigger).Inc()
	m.passDuration.Observe(d.Seconds())
}

func (m *Metrics) observeResult(res models.SyncResult) {
	if m == nil {
		return
	}
	for _, e := range res.Errors {
		m.backendErrors.WithLabelValues(e.Backend, e.Kind.String()).Inc()
	}
	for _, marker := range res.FallbacksUsed {
		m.fallbacks.WithLabelValues(marker).Inc()
	}
}

func (m *Metrics) observeOutcome(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.operations.WithLabelValues(outcome).Add(float64(n))
}
