package kit

import "github.com/prometheus/client_golang/prometheus"

// Metrics covers the cache and session counters the core reports.
type Metrics struct {
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheInvalidations prometheus.Counter
	SessionsIssued     prometheus.Counter
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "product_cache_hits_total",
			Help: "Product cache lookups served without a catalog query",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "product_cache_misses_total",
			Help: "Product cache lookups that fell through to the catalog",
		}),
		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "product_cache_invalidated_entries_total",
			Help: "Cache entries removed by bulk invalidation sweeps",
		}),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_issued_total",
			Help: "Session tokens created on successful login",
		}),
	}

	reg.MustRegister(m.CacheHits, m.CacheMisses, m.CacheInvalidations, m.SessionsIssued)
	return m
}
