// Package cache provides an in-memory response cache for the HTTP server.
// It uses patrickmn/go-cache for TTL-based expiry.
//
// Entries derived from the store are keyed by the store revision, so a
// mutation makes every older entry unreachable without explicit
// invalidation; stale revisions simply age out.
package cache

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache wraps go-cache with revision-aware lookups.
type Cache struct {
	store *gocache.Cache
}

// New creates a new cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Fetch returns the value cached for key at revision rev, calling compute on
// a miss. The computed value is stored only when current still reports rev
// afterwards, so a result that raced a mutation is served once but never
// cached.
func (c *Cache) Fetch(key string, rev uint64, current func() uint64, compute func() any) any {
	k := RevisionKey(key, rev)
	if v, ok := c.store.Get(k); ok {
		return v
	}

	v := compute()
	if current() == rev {
		c.store.Set(k, v, gocache.DefaultExpiration)
	}
	return v
}

// RevisionKey builds the cache key for key at revision rev.
func RevisionKey(key string, rev uint64) string {
	return key + "@" + strconv.FormatUint(rev, 10)
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int `json:"itemCount"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		ItemCount: c.store.ItemCount(),
	}
}
