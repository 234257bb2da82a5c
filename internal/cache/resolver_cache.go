package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// entryMeta tracks when a resolver cache entry was written, its per-key
// expiry, and its intended staleness threshold. The underlying
// expirable.LRU only enforces one cache-wide TTL, so per-key lifetimes
// shorter or longer than that default are enforced here on Get.
type entryMeta struct {
	value                interface{}
	writtenAt            time.Time
	expiresAt            time.Time // zero means no per-key expiry beyond the LRU's own
	staleWhileRevalidate time.Duration // 0 means not configured
}

// ResolverCache implements the §4.3 Cache contract: per-key TTL eviction
// on top of hashicorp/golang-lru's expirable.LRU (used here purely for its
// size-bounded eviction), plus stale-while-revalidate staleness detection.
// The LRU itself is built with TTL disabled (ttl=0) since its one
// cache-wide TTL can't represent callers asking for different lifetimes;
// entryMeta.expiresAt carries each entry's real per-key deadline instead.
type ResolverCache struct {
	mu         sync.Mutex
	lru        *lru.LRU[string, entryMeta]
	defaultTTL time.Duration
}

// NewResolverCache builds a cache capped at size entries, with defaultTTL
// applied to Set calls that pass ttl<=0.
func NewResolverCache(size int, defaultTTL time.Duration) *ResolverCache {
	return &ResolverCache{
		lru:        lru.NewLRU[string, entryMeta](size, nil, 0),
		defaultTTL: defaultTTL,
	}
}

// Get reads without blocking on any in-flight writer. An entry past its
// own per-key expiry is treated as a miss and evicted, even though the
// LRU's own cache-wide TTL hasn't expired it yet.
func (c *ResolverCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !meta.expiresAt.IsZero() && time.Now().After(meta.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return meta.value, true
}

// Set atomically inserts value with the given ttl. ttl, when non-zero,
// is enforced per key independently of the cache's construction-time
// default TTL. staleWhileRevalidate, if non-zero, marks the point past
// which GetTTL reports staleness so callers can trigger a background
// refresh while still serving the cached value.
func (c *ResolverCache) Set(key string, value interface{}, ttl time.Duration, staleWhileRevalidate time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.lru.Add(key, entryMeta{
		value:                value,
		writtenAt:            time.Now(),
		expiresAt:            expiresAt,
		staleWhileRevalidate: staleWhileRevalidate,
	})
}

// Delete removes key unconditionally.
func (c *ResolverCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// GetTTL reports how long ago the entry was written and whether it has
// crossed its configured stale-while-revalidate threshold or its own
// per-key expiry.
func (c *ResolverCache) GetTTL(key string) (age time.Duration, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, found := c.lru.Get(key)
	if !found {
		return 0, false, false
	}
	if !meta.expiresAt.IsZero() && time.Now().After(meta.expiresAt) {
		c.lru.Remove(key)
		return 0, false, false
	}
	age = time.Since(meta.writtenAt)
	stale = meta.staleWhileRevalidate > 0 && age > meta.staleWhileRevalidate
	return age, stale, true
}
