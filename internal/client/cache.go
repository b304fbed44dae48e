package client

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Result cache defaults.
const (
	DefaultCacheTTL  = 60 * time.Second
	DefaultCacheSize = 256
)

// ResultCache holds recent read results keyed by operation, entry id, and
// arguments. Entries expire after the TTL. Mutations on an id must call
// Invalidate for that id; Purge drops everything.
type ResultCache struct {
	lru *expirable.LRU[string, any]
}

// NewResultCache returns a cache holding at most size results for ttl.
func NewResultCache(size int, ttl time.Duration) *ResultCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// CacheKey joins the parts of a cache key. Entry ids never contain "|".
func CacheKey(op, id string, args ...string) string {
	return strings.Join(append([]string{op, id}, args...), "|")
}

func (c *ResultCache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *ResultCache) Add(key string, value any) {
	c.lru.Add(key, value)
}

// Invalidate removes every cached result for id.
func (c *ResultCache) Invalidate(id string) {
	for _, key := range c.lru.Keys() {
		if keyID(key) == id {
			c.lru.Remove(key)
		}
	}
}

// Purge removes every cached result.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached results, expired ones included until
// they are reaped.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

func keyID(key string) string {
	parts := strings.SplitN(key, "|", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
