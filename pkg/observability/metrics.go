package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decision scopes and outcomes used as metric label values.
const (
	ScopeCluster = "cluster"
	ScopeIndices = "indices"
	ScopeRunAs   = "run_as"

	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics (admin surface)
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Role cache metrics
	RoleCacheHitsTotal   prometheus.Counter
	RoleCacheMissesTotal prometheus.Counter
	RoleCacheSize        prometheus.Gauge
	UnknownRolesTotal    prometheus.Counter

	// Role compilation metrics
	RoleCompilationDuration    prometheus.Histogram
	RoleCompilationErrorsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_authz_decisions_total",
				Help: "Authorization decisions by scope and outcome",
			},
			[]string{"scope", "outcome"},
		),
		RoleCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_role_cache_hits_total",
				Help: "Role cache lookups served from the cache",
			},
		),
		RoleCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_role_cache_misses_total",
				Help: "Role cache lookups that triggered a role build",
			},
		),
		RoleCacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_role_cache_size",
				Help: "Number of compiled roles currently cached",
			},
		),
		UnknownRolesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_unknown_roles_total",
				Help: "Role lookups that resolved to no descriptor",
			},
		),
		RoleCompilationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warden_role_compilation_duration_seconds",
				Help:    "Time spent compiling role descriptors into automata",
				Buckets: prometheus.DefBuckets,
			},
		),
		RoleCompilationErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_role_compilation_errors_total",
				Help: "Role descriptor compilations that failed",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.RoleCacheHitsTotal,
		m.RoleCacheMissesTotal,
		m.RoleCacheSize,
		m.UnknownRolesTotal,
		m.RoleCompilationDuration,
		m.RoleCompilationErrorsTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry in Prometheus format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDecision increments the decision counter for a scope/outcome pair
func (m *Metrics) RecordDecision(scope string, granted bool) {
	outcome := OutcomeDenied
	if granted {
		outcome = OutcomeGranted
	}
	m.AuthzDecisionsTotal.WithLabelValues(scope, outcome).Inc()
}
