package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolverCachePerKeyTTLOverridesDefault(t *testing.T) {
	c := NewResolverCache(100, time.Hour)
	c.Set("short", "v", time.Millisecond, 0)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok, "entry with a short per-key ttl should expire well before the cache-wide default")
}

func TestResolverCacheHonoursLongerPerKeyTTL(t *testing.T) {
	c := NewResolverCache(100, time.Millisecond)
	c.Set("long", "v", time.Hour, 0)

	v, ok := c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestResolverCacheStaleWhileRevalidateUnaffectedByExpiry(t *testing.T) {
	c := NewResolverCache(100, time.Hour)
	c.Set("k", "v", time.Hour, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	age, stale, ok := c.GetTTL("k")
	assert.True(t, ok)
	assert.True(t, stale)
	assert.Greater(t, age, time.Duration(0))
}
