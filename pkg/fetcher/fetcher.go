// Package fetcher implements the read-through coordination: cache
// lookup first, upstream fetch and best-effort cache population on a
// miss.
package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/steamtools/price-service/pkg/cache"
	"github.com/steamtools/price-service/pkg/logging"
	"github.com/steamtools/price-service/pkg/pricing"
	"github.com/steamtools/price-service/pkg/steamapis"
)

var fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "steamapis_fetch_duration_seconds",
	Help:    "Market data fetch duration by serving source",
	Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 45},
}, []string{"source"}) // "cache", "upstream"

// UpstreamClient fetches raw per-item payloads from SteamApis.
type UpstreamClient interface {
	Fetch(ctx context.Context, appID, marketHashName string) (*steamapis.ItemResponse, error)
}

// CacheStore is the price record cache. Lookup returns
// cache.ErrCacheMiss on absence.
type CacheStore interface {
	Lookup(ctx context.Context, appID, marketHashName string) (*pricing.PriceRecord, error)
	Store(ctx context.Context, record *pricing.PriceRecord) error
}

// Fetcher is the read-through coordinator.
type Fetcher struct {
	client UpstreamClient
	cache  CacheStore
	logger zerolog.Logger
}

// New creates a new Fetcher.
func New(client UpstreamClient, cacheStore CacheStore) *Fetcher {
	return &Fetcher{
		client: client,
		cache:  cacheStore,
		logger: logging.NewLogger("fetcher"),
	}
}

// GetMarketData returns the price record for an item, serving from
// cache when present and falling back to SteamApis on a miss.
//
// Cache failures never fail the request: a backend error on lookup is
// treated as a miss, and the write after a successful fetch is
// best-effort. Upstream and normalization failures propagate as typed
// *steamapis.Error values.
//
// Concurrent callers for the same key during a miss each fetch
// upstream independently; there is no single-flight de-duplication.
func (f *Fetcher) GetMarketData(ctx context.Context, appID, marketHashName string) (*pricing.PriceRecord, error) {
	startTime := time.Now()

	record, err := f.cache.Lookup(ctx, appID, marketHashName)
	if err == nil {
		f.logger.Debug().
			Str("app_id", appID).
			Str("market_hash_name", marketHashName).
			Msg("Read from cache")
		fetchDuration.WithLabelValues("cache").Observe(time.Since(startTime).Seconds())
		return record, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Fail open: a broken cache backend degrades to a miss.
		f.logger.Warn().
			Err(err).
			Str("app_id", appID).
			Str("market_hash_name", marketHashName).
			Msg("Error reading from cache")
	}

	resp, err := f.client.Fetch(ctx, appID, marketHashName)
	if err != nil {
		return nil, err
	}

	record, err = pricing.Normalize(resp, appID, marketHashName)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Store(ctx, record); err != nil {
		f.logger.Warn().
			Err(err).
			Str("app_id", appID).
			Str("market_hash_name", marketHashName).
			Msg("Error saving to cache")
	} else {
		f.logger.Info().
			Str("app_id", appID).
			Str("market_hash_name", marketHashName).
			Msg("Cached market data")
	}

	fetchDuration.WithLabelValues("upstream").Observe(time.Since(startTime).Seconds())
	return record, nil
}
