package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the Fleetlog server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Auth metrics.
	AuthSuccessesTotal   *prometheus.CounterVec
	AuthFailuresTotal    *prometheus.CounterVec
	GuardRejectionsTotal *prometheus.CounterVec

	// Domain metrics.
	OperationWritesTotal  *prometheus.CounterVec
	TenantDeletionsTotal  prometheus.Counter
	SessionsCleanedTotal  prometheus.Counter

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetlog_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetlog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetlog_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetlog_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"auth_type"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetlog_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		GuardRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetlog_guard_rejections_total",
			Help: "Total number of guard chain rejections by stage.",
		}, []string{"stage"}),

		OperationWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetlog_operation_writes_total",
			Help: "Total number of operation writes by kind and action.",
		}, []string{"kind", "action"}),

		TenantDeletionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlog_tenant_deletions_total",
			Help: "Total number of tenants deleted after their last member left.",
		}),

		SessionsCleanedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlog_sessions_cleaned_total",
			Help: "Total number of expired sessions removed by cleanup.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetlog_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.AuthSuccessesTotal,
		m.AuthFailuresTotal,
		m.GuardRejectionsTotal,
		m.OperationWritesTotal,
		m.TenantDeletionsTotal,
		m.SessionsCleanedTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// IncAuthSuccess increments the auth success counter for the given auth type.
func (m *Metrics) IncAuthSuccess(authType string) {
	m.AuthSuccessesTotal.WithLabelValues(authType).Inc()
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncGuardRejection increments the guard rejection counter for one stage.
func (m *Metrics) IncGuardRejection(stage string) {
	m.GuardRejectionsTotal.WithLabelValues(stage).Inc()
}

// IncOperationWrite increments the operation write counter.
func (m *Metrics) IncOperationWrite(kind, action string) {
	m.OperationWritesTotal.WithLabelValues(kind, action).Inc()
}

// IncTenantDeletion increments the tenant deletion counter.
func (m *Metrics) IncTenantDeletion() {
	m.TenantDeletionsTotal.Inc()
}

// AddSessionsCleaned records a batch of cleaned-up expired sessions.
func (m *Metrics) AddSessionsCleaned(n int64) {
	m.SessionsCleanedTotal.Add(float64(n))
}
