// Package metrics provides Prometheus metrics collection for the scenario
// engine: scenario outcomes, validation failures, event-waiter timeouts,
// WebSocket reconnects, and REST call latency, alongside the ambient
// HTTP/error/uptime metrics the teacher's services all carry.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/R3E-Network/scenario-engine/infrastructure/runtime"
)

// Metrics holds all Prometheus metrics collectors.
type Metrics struct {
	// HTTP metrics (infrastructure/httpstatus's read-only surface).
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Error metrics.
	ErrorsTotal *prometheus.CounterVec

	// Scenario execution metrics.
	ScenarioRunsTotal       *prometheus.CounterVec
	ScenarioDuration        *prometheus.HistogramVec
	ValidationFailuresTotal *prometheus.CounterVec
	EventTimeoutsTotal      *prometheus.CounterVec

	// Transport metrics.
	WSReconnectsTotal   *prometheus.CounterVec
	RESTRequestsTotal   *prometheus.CounterVec
	RESTRequestDuration *prometheus.HistogramVec

	// Service health.
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered against
// the default Prometheus registerer.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registerer.
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		ScenarioRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scenario_runs_total",
				Help: "Total number of scenario runs by outcome",
			},
			[]string{"provider", "target_class", "result"},
		),
		ScenarioDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scenario_duration_seconds",
				Help:    "Scenario execution duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "target_class"},
		),
		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scenario_validation_failures_total",
				Help: "Total number of failed validation detail checks, by field",
			},
			[]string{"provider", "field"},
		),
		EventTimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scenario_event_timeouts_total",
				Help: "Total number of expected events that timed out unreceived",
			},
			[]string{"provider", "event"},
		),

		WSReconnectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ws_reconnects_total",
				Help: "Total number of WebSocket reconnect attempts",
			},
			[]string{"provider"},
		),
		RESTRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rest_requests_total",
				Help: "Total number of provider REST requests",
			},
			[]string{"provider", "endpoint", "status"},
		),
		RESTRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rest_request_duration_seconds",
				Help:    "Provider REST request duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"provider", "endpoint"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.ScenarioRunsTotal,
			m.ScenarioDuration,
			m.ValidationFailuresTotal,
			m.EventTimeoutsTotal,
			m.WSReconnectsTotal,
			m.RESTRequestsTotal,
			m.RESTRequestDuration,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordHTTPRequest records a request against the read-only status surface.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordError records an error.
func (m *Metrics) RecordError(provider, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(provider, errorType, operation).Inc()
}

// RecordScenarioRun records one scenario execution's outcome and duration.
// result is one of "passed", "failed", or "skipped".
func (m *Metrics) RecordScenarioRun(provider, targetClass, result string, duration time.Duration) {
	m.ScenarioRunsTotal.WithLabelValues(provider, targetClass, result).Inc()
	m.ScenarioDuration.WithLabelValues(provider, targetClass).Observe(duration.Seconds())
}

// RecordValidationFailure records one failing ValidationDetail.
func (m *Metrics) RecordValidationFailure(provider, field string) {
	m.ValidationFailuresTotal.WithLabelValues(provider, field).Inc()
}

// RecordEventTimeout records one expected event that timed out unreceived.
func (m *Metrics) RecordEventTimeout(provider, event string) {
	m.EventTimeoutsTotal.WithLabelValues(provider, event).Inc()
}

// RecordWSReconnect records one WebSocket reconnect attempt.
func (m *Metrics) RecordWSReconnect(provider string) {
	m.WSReconnectsTotal.WithLabelValues(provider).Inc()
}

// RecordRESTCall records one provider REST request.
func (m *Metrics) RecordRESTCall(provider, endpoint, status string, duration time.Duration) {
	m.RESTRequestsTotal.WithLabelValues(provider, endpoint, status).Inc()
	m.RESTRequestDuration.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}

// UpdateUptime updates the service uptime gauge.
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

// IncrementInFlight increments the in-flight requests counter.
func (m *Metrics) IncrementInFlight() {
	m.RequestsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight requests counter.
func (m *Metrics) DecrementInFlight() {
	m.RequestsInFlight.Dec()
}

func getEnvironment() string {
	return string(runtime.Env())
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !runtime.IsProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance.
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
