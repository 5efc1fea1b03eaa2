package feed

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache keeps loaded seasons for a fixed time. It is a plain value handed to whoever loads
// seasons; there is no package-level cache.
type Cache struct {
	items *cache.Cache
	ttl   time.Duration
}

// NewCache returns a cache whose entries expire after ttl. A zero ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{items: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Get returns a cached season that has not expired.
func (c *Cache) Get(key string) (*Season, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Season), true
}

// Put stores a season under key.
func (c *Cache) Put(key string, s *Season) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.items.Set(key, s, cache.DefaultExpiration)
}

// Invalidate drops a cached season.
func (c *Cache) Invalidate(key string) {
	if c != nil {
		c.items.Delete(key)
	}
}

// Cached returns the season cached under key, loading it from src when missing or expired.
// Loading errors are not cached.
func Cached(ctx context.Context, c *Cache, key string, src Source) (*Season, error) {
	if s, ok := c.Get(key); ok {
		return s, nil
	}
	s, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.Put(key, s)
	return s, nil
}
