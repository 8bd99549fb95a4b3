package resilience

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// DefaultCacheSize bounds the result cache entry count
const DefaultCacheSize = 1000

// cacheEntry pairs a response with its expiry
type cacheEntry struct {
	resp      *types.SearchResponse
	expiresAt time.Time
}

// ResultCache is an LRU cache of fused search responses with per-entry TTL.
// Entries are deep-copied on both put and get so callers can never mutate
// cached state.
type ResultCache struct {
	cache *lru.Cache[string, *cacheEntry]
	now   func() time.Time
}

// NewResultCache creates a result cache holding up to size entries
func NewResultCache(size int) *ResultCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		cache, _ = lru.New[string, *cacheEntry](DefaultCacheSize)
	}
	return &ResultCache{
		cache: cache,
		now:   time.Now,
	}
}

// Key hashes the request shape into a cache key. The strategy hint keeps a
// preferred-strategy request from colliding with an auto-classified one for
// the same text.
func Key(strategyHint string, normalizedQuery string, filters *types.SearchFilters, limit int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%d",
		strategyHint, normalizedQuery, filters.Key(), limit)))
	return hex.EncodeToString(h[:])
}

// Get returns a deep copy of the cached response, or false on miss or
// expiry. Expired entries are removed on access.
func (c *ResultCache) Get(key string) (*types.SearchResponse, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.resp.Clone(), true
}

// Put stores a deep copy of the response under key for the given TTL
func (c *ResultCache) Put(key string, resp *types.SearchResponse, ttl time.Duration) {
	if resp == nil || ttl <= 0 {
		return
	}
	c.cache.Add(key, &cacheEntry{
		resp:      resp.Clone(),
		expiresAt: c.now().Add(ttl),
	})
}

// Len returns the number of cached entries, expired ones included
func (c *ResultCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached entry
func (c *ResultCache) Purge() {
	c.cache.Purge()
}
