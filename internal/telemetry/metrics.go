package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the counters/histograms registered for the cache, fetcher,
// and orchestrator. Only the cache (internal/cache.Coordinator) updates any
// of them; the Fetch* and Install* collectors and BytesServed are
// registered but nothing in this module records to them. Generalized from the per-field counter struct in
// _examples/jmgilman-go/oci/internal/cache/metrics.go, rebuilt on
// prometheus/client_golang (the pack's metrics library, per SPEC_FULL §1)
// instead of the teacher's hand-rolled atomic-counter struct, since
// Prometheus is the library the rest of the pack (developer-mesh,
// objectfs) actually reaches for when it wants metrics.
type Metrics struct {
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	BytesStored    prometheus.Counter
	BytesServed    prometheus.Counter

	FetchAttempts *prometheus.CounterVec
	FetchRetries  prometheus.Counter
	FetchBytes    prometheus.Counter
	FetchDuration prometheus.Histogram

	InstallsSucceeded prometheus.Counter
	InstallsFailed    prometheus.Counter
}

// NewMetrics registers every metric against reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the global default
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phalanx_cache_hits_total",
			Help: "Cache hits by entry class and tier.",
		}, []string{"class", "tier"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phalanx_cache_misses_total",
			Help: "Cache misses by entry class.",
		}, []string{"class"}),
		CacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phalanx_cache_evictions_total",
			Help: "Cache evictions by tier and strategy.",
		}, []string{"tier", "strategy"}),
		BytesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phalanx_cache_bytes_stored_total",
			Help: "Total bytes written into the cache.",
		}),
		BytesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phalanx_cache_bytes_served_total",
			Help: "Total bytes served out of the cache.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phalanx_fetch_attempts_total",
			Help: "HTTP fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phalanx_fetch_retries_total",
			Help: "HTTP fetch retry attempts.",
		}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phalanx_fetch_bytes_total",
			Help: "Total bytes downloaded.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phalanx_fetch_duration_seconds",
			Help:    "HTTP fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		InstallsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phalanx_installs_succeeded_total",
			Help: "Packages installed successfully.",
		}),
		InstallsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phalanx_installs_failed_total",
			Help: "Package installs that failed.",
		}),
	}
	reg.MustRegister(
		m.CacheHits, m.CacheMisses, m.CacheEvictions, m.BytesStored, m.BytesServed,
		m.FetchAttempts, m.FetchRetries, m.FetchBytes, m.FetchDuration,
		m.InstallsSucceeded, m.InstallsFailed,
	)
	return m
}
