package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsRouted  *prometheus.CounterVec
	Redirects       *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SearchDuration  *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	LoginAttempts   *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers metrics on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsRouted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yapisite_requests_routed_total",
			Help: "Requests handled by the dispatcher by route class and outcome",
		}, []string{"class", "outcome"}),
		Redirects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yapisite_redirects_total",
			Help: "Redirects issued by the gateway by reason",
		}, []string{"reason"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yapisite_http_request_duration_seconds",
			Help:    "HTTP request latency by route class",
			Buckets: prometheus.DefBuckets,
		}, []string{"class"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yapisite_search_duration_seconds",
			Help:    "Keyed search pagination latency by mode",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity", "mode"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yapisite_cache_lookups_total",
			Help: "Settings/category cache lookups by key and result",
		}, []string{"key", "result"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "yapisite_admin_login_attempts_total",
			Help: "Administrative login attempts by result",
		}, []string{"result"}),
	}
}

// IncRouted counts one dispatcher decision. Nil-safe.
func (m *Metrics) IncRouted(class, outcome string) {
	if m == nil {
		return
	}
	m.RequestsRouted.WithLabelValues(class, outcome).Inc()
}

// IncRedirect counts one gateway redirect. Nil-safe.
func (m *Metrics) IncRedirect(reason string) {
	if m == nil {
		return
	}
	m.Redirects.WithLabelValues(reason).Inc()
}

// ObserveRequest records request latency in seconds. Nil-safe.
func (m *Metrics) ObserveRequest(class string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(class).Observe(seconds)
}

// ObserveSearch records search latency in seconds. Nil-safe.
func (m *Metrics) ObserveSearch(entity, mode string, seconds float64) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(entity, mode).Observe(seconds)
}

// RecordCacheHit counts a cache hit. Nil-safe.
func (m *Metrics) RecordCacheHit(key string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(key, "hit").Inc()
}

// RecordCacheMiss counts a cache miss. Nil-safe.
func (m *Metrics) RecordCacheMiss(key string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(key, "miss").Inc()
}

// IncLogin counts a login attempt. Nil-safe.
func (m *Metrics) IncLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}
