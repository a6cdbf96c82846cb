package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steamapis_cache_hits_total",
			Help: "Total number of price cache hits",
		},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steamapis_cache_misses_total",
			Help: "Total number of price cache misses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamapis_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "lookup", "store"
	)
)
