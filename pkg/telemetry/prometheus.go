package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for shared resources. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	credentialCacheHits prometheus.Counter
	credentialFetches   *prometheus.CounterVec
	credentialFallbacks *prometheus.CounterVec
	credentialRefreshes prometheus.Counter
	credentialSweeps    prometheus.Counter
	remoteRequests      *prometheus.CounterVec
	remoteLatency       prometheus.Histogram
	localFallbacks      *prometheus.CounterVec
	registry            *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		credentialCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeforge_credential_cache_hits_total",
			Help: "Credential requests served from the cache without a fetch",
		}),
		credentialFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeforge_credential_fetch_attempts_total",
			Help: "Credential fetch attempts by result",
		}, []string{"result"}),
		credentialFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeforge_credential_fallbacks_total",
			Help: "Fallback tiers used after the fetch budget was exhausted",
		}, []string{"tier"}),
		credentialRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeforge_credential_refreshes_total",
			Help: "Explicit credential invalidations",
		}),
		credentialSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeforge_credential_sweeps_total",
			Help: "Expired credentials discarded by the background sweep",
		}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeforge_remote_requests_total",
			Help: "Remote completion calls by outcome",
		}, []string{"outcome"}),
		remoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codeforge_remote_request_duration_seconds",
			Help:    "Remote completion call latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		localFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeforge_local_fallbacks_total",
			Help: "Transformations served by the local rule engine, by failed state",
		}, []string{"state"}),
		registry: registry,
	}

	registry.MustRegister(
		m.credentialCacheHits,
		m.credentialFetches,
		m.credentialFallbacks,
		m.credentialRefreshes,
		m.credentialSweeps,
		m.remoteRequests,
		m.remoteLatency,
		m.localFallbacks,
	)

	return m
}

// RecordCredentialHit counts a cache hit.
func (m *Metrics) RecordCredentialHit() {
	if m == nil {
		return
	}
	m.credentialCacheHits.Inc()
}

// RecordCredentialFetch counts one fetch attempt: success, failure or timeout.
func (m *Metrics) RecordCredentialFetch(result string) {
	if m == nil {
		return
	}
	m.credentialFetches.WithLabelValues(result).Inc()
}

// RecordCredentialFallback counts a fallback tier: stale_cached, last_known or exhausted.
func (m *Metrics) RecordCredentialFallback(tier string) {
	if m == nil {
		return
	}
	m.credentialFallbacks.WithLabelValues(tier).Inc()
}

// RecordCredentialRefresh counts an explicit invalidation.
func (m *Metrics) RecordCredentialRefresh() {
	if m == nil {
		return
	}
	m.credentialRefreshes.Inc()
}

// RecordCredentialSweep counts an expired credential dropped by the sweep.
func (m *Metrics) RecordCredentialSweep() {
	if m == nil {
		return
	}
	m.credentialSweeps.Inc()
}

// RecordRemoteRequest counts a completion call and its latency in seconds.
func (m *Metrics) RecordRemoteRequest(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		m.remoteLatency.Observe(seconds)
	}
}

// RecordLocalFallback counts a transformation served locally.
func (m *Metrics) RecordLocalFallback(state string) {
	if m == nil {
		return
	}
	m.localFallbacks.WithLabelValues(state).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
