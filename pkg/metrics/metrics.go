// Package metrics provides centralized Prometheus metrics reference for
// the price service. All metrics are defined in their respective
// packages (steamapis, cache, fetcher) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the price service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - steamapis_cache_hits_total (Counter): Price cache hits
//   - steamapis_cache_misses_total (Counter): Price cache misses
//   - steamapis_cache_errors_total{operation} (Counter): Cache backend errors ("lookup", "store")
//
// Request Metrics (pkg/steamapis):
//   - steamapis_requests_total{status} (Counter): Upstream requests by HTTP status
//   - steamapis_request_duration_seconds (Histogram): Upstream request duration, retries included
//   - steamapis_errors_total{kind} (Counter): Typed errors by kind
//
// Retry Metrics (pkg/steamapis):
//   - steamapis_retries_total (Counter): Retry attempts
//   - steamapis_retry_backoff_seconds (Histogram): Backoff durations
//   - steamapis_retry_exhausted_total (Counter): Requests that exhausted max retries
//
// Fetch Metrics (pkg/fetcher):
//   - steamapis_fetch_duration_seconds{source} (Histogram): End-to-end fetch duration by serving source ("cache", "upstream")
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(steamapis_cache_hits_total[5m]) /
//   (rate(steamapis_cache_hits_total[5m]) + rate(steamapis_cache_misses_total[5m]))
//
//   # Upstream Error Rate
//   rate(steamapis_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(steamapis_request_duration_seconds_bucket[5m]))
