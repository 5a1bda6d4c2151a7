package engine

import (
	"sync"
	"time"

	"chainalytics/internal/models"
)

// chainCache holds enriched chains keyed by symbol, valid within fixed TTL
// buckets. Two lookups in the same bucket share one snapshot fetch; a lookup
// in a later bucket misses and refetches. Bucketing keeps expiry checks to an
// integer compare and makes cache behavior reproducible in tests that control
// the clock.
type chainCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	bucket int64
	chain  *models.OptionsChain
}

// newChainCache creates a cache with the given TTL. A non-positive TTL
// disables caching entirely: every get misses.
func newChainCache(ttl time.Duration) *chainCache {
	return &chainCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *chainCache) bucketAt(now time.Time) int64 {
	return now.UnixNano() / int64(c.ttl)
}

func (c *chainCache) get(symbol string, now time.Time) (*models.OptionsChain, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[symbol]
	if !ok || entry.bucket != c.bucketAt(now) {
		return nil, false
	}
	return entry.chain, true
}

func (c *chainCache) put(symbol string, oc *models.OptionsChain, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = cacheEntry{bucket: c.bucketAt(now), chain: oc}
}

// evict drops the cached chain for a symbol, forcing the next lookup to
// refetch regardless of bucket.
func (c *chainCache) evict(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, symbol)
}
