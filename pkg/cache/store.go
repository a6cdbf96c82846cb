// Package cache provides the Redis-backed price record cache with a
// fixed TTL enforced by the backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/steamtools/price-service/pkg/pricing"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultTTL is the fixed record lifetime: 24 hours from write time.
const DefaultTTL = 24 * time.Hour

// entry is the stored shape of a price record. TTL holds the absolute
// epoch-seconds expiry, matching the cache backend contract; Redis
// enforces the actual removal. Decimals marshal as strings, so the
// digits round-trip exactly.
type entry struct {
	AppID           string          `json:"app_id"`
	MarketHashName  string          `json:"market_hash_name"`
	HighestBuyOrder decimal.Decimal `json:"highest_buy_order"`
	LowestSellOrder decimal.Decimal `json:"lowest_sell_order"`
	TTL             int64           `json:"ttl"`
}

// Store handles price record caching with a Redis backend. Expiry is
// the backend's job; callers never re-check timestamps.
type Store struct {
	redis *redis.Client
	ttl   time.Duration

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewStore creates a new cache store. A non-positive ttl falls back to
// DefaultTTL.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Lookup performs a point read for the composite key. It returns
// ErrCacheMiss when the key is absent or expired; any other error is a
// backend failure the caller is expected to treat as a miss.
func (s *Store) Lookup(ctx context.Context, appID, marketHashName string) (*pricing.PriceRecord, error) {
	data, err := s.redis.Get(ctx, Key(appID, marketHashName)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		CacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.Inc()

	return &pricing.PriceRecord{
		AppID:           e.AppID,
		MarketHashName:  e.MarketHashName,
		HighestBuyOrder: e.HighestBuyOrder,
		LowestSellOrder: e.LowestSellOrder,
	}, nil
}

// Store writes a record with expiry set to now + TTL. Writes are always
// full overwrites keyed by the composite key; there is no update or
// delete operation.
func (s *Store) Store(ctx context.Context, record *pricing.PriceRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	appID, marketHashName := record.Key()

	e := entry{
		AppID:           record.AppID,
		MarketHashName:  record.MarketHashName,
		HighestBuyOrder: record.HighestBuyOrder,
		LowestSellOrder: record.LowestSellOrder,
		TTL:             s.now().Add(s.ttl).Unix(),
	}

	data, err := json.Marshal(e)
	if err != nil {
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, Key(appID, marketHashName), data, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}
