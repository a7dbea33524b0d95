package reviews

import (
	"sync"
	"time"
)

type cacheEntry struct {
	summary   PlaceSummary
	expiresAt time.Time
}

// Cache memoizes per-place summaries across requests, keyed by place ID.
// Entries are replaced as whole values; two callers racing on the same
// miss both fetch and the last write wins, which is fine since the
// values converge. The clock is injectable so TTL expiry is testable.
type Cache struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached summary if it is still fresh. An expired entry
// is a miss, not an error; it stays around for GetStale.
func (c *Cache) Get(key string) (PlaceSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return PlaceSummary{}, false
	}
	return e.summary, true
}

// GetStale returns whatever is cached for the key regardless of age,
// plus whether it is still fresh. Used for the stale-if-available path
// when a refetch fails.
func (c *Cache) GetStale(key string) (summary PlaceSummary, fresh, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.entries[key]
	if !found {
		return PlaceSummary{}, false, false
	}
	return e.summary, c.now().Before(e.expiresAt), true
}

func (c *Cache) Put(key string, s PlaceSummary, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{summary: s, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}
