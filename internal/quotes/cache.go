// Package quotes holds the in-memory quote cache and the market data service
// built on top of it. Every price series the advisor reads flows through the
// cache so repeated queries inside the TTL window hit the upstream provider
// at most once.
package quotes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// DefaultTTL is the freshness window for fetched price series.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	series    domain.PriceSeries
	expiresAt time.Time
}

// Cache is a TTL cache in front of a market data provider. Entries are keyed
// by symbol, period and interval. Expired entries are kept around as a stale
// fallback for when the provider is down.
type Cache struct {
	provider domain.MarketDataProvider
	ttl      time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry

	// now is swappable in tests.
	now func() time.Time
}

// NewCache creates a cache with the given freshness window. A non-positive
// ttl falls back to DefaultTTL.
func NewCache(provider domain.MarketDataProvider, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		provider: provider,
		ttl:      ttl,
		log:      log.With().Str("component", "quote_cache").Logger(),
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// Get returns the price series for symbol/period/interval, fetching from the
// provider when no fresh entry exists. Empty provider results are cached
// like any other. When the provider fails, a stale entry is served if one
// exists; otherwise the error wraps domain.ErrDataUnavailable.
func (c *Cache) Get(ctx context.Context, symbol, period, interval string) (domain.PriceSeries, error) {
	key := cacheKey(symbol, period, interval)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[key]; ok && now.Before(entry.expiresAt) {
		return entry.series, nil
	}

	series, err := c.provider.FetchSeries(ctx, symbol, period, interval)
	if err != nil {
		if entry, ok := c.entries[key]; ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, serving stale series")
			return entry.series, nil
		}
		return domain.PriceSeries{}, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, symbol, err)
	}

	c.entries[key] = cacheEntry{series: series, expiresAt: now.Add(c.ttl)}
	return series, nil
}

// Warm fetches a series purely for its side effect of filling the cache.
func (c *Cache) Warm(ctx context.Context, symbol, period, interval string) error {
	_, err := c.Get(ctx, symbol, period, interval)
	return err
}

// Invalidate drops the cached entry for symbol/period/interval, forcing the
// next Get to hit the provider.
func (c *Cache) Invalidate(symbol, period, interval string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(symbol, period, interval))
}

// Len reports how many entries the cache currently holds, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(symbol, period, interval string) string {
	return symbol + "_" + period + "_" + interval
}
