package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Trigger metrics
	TriggersTotal   *prometheus.CounterVec
	TriggerDuration *prometheus.HistogramVec
	TriggersShared  prometheus.Counter

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	gatherer prometheus.Gatherer

	// Snapshot for the CLI and tests - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values
type MetricsSnapshot struct {
	TotalRequests int64
	TotalErrors   int64
	Focused       int64
	Launched      int64
	Failed        int64
}

// NewMetrics creates a metrics collector on its own registry, alongside the
// Go runtime and process collectors. Each server owns its registry so a
// process can build more than one.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWithRegistry(reg, reg)
}

// NewMetricsWithRegistry creates a metrics collector on a caller-owned
// registry. Tests use a fresh registry per case.
func NewMetricsWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),
		gatherer:  gatherer,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{16, 64, 256, 1024, 4096},
			},
			[]string{"method", "path"},
		),

		TriggersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_triggers_total",
				Help: "Total number of trigger actions by outcome and probe result",
			},
			[]string{"outcome", "probe"},
		),
		TriggerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_trigger_duration_seconds",
				Help:    "Trigger action duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		TriggersShared: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_triggers_shared_total",
				Help: "Trigger requests answered by joining an in-flight trigger",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bridge_uptime_seconds",
			Help: "Bridge uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTrigger records a completed trigger action
func (m *Metrics) RecordTrigger(outcome, probe string, duration time.Duration) {
	m.TriggersTotal.WithLabelValues(outcome, probe).Inc()
	m.TriggerDuration.WithLabelValues(outcome).Observe(duration.Seconds())

	m.mu.Lock()
	switch outcome {
	case "focused":
		m.snapshot.Focused++
	case "launched":
		m.snapshot.Launched++
	default:
		m.snapshot.Failed++
	}
	m.mu.Unlock()
}

// IncTriggersShared counts a trigger that joined an in-flight one
func (m *Metrics) IncTriggersShared() {
	m.TriggersShared.Inc()
}

// Snapshot returns a copy of the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Handler returns the Prometheus exposition handler for this collector's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
