package api

import (
	"sync"
	"sync/atomic"
	"time"
)

// ResponseCache is a concurrent-safe LRU cache of rendered response bodies
// with TTL expiration. Keys are request URIs.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string // front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	gen        uint64 // bumped by Purge
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
}

type cacheEntry struct {
	body     []byte
	storedAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResponseCache creates a cache holding at most maxEntries bodies for ttl.
func NewResponseCache(maxEntries int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached body for key, or nil on miss or expiry.
func (c *ResponseCache) Get(key string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return e.body
}

// Generation returns the purge count. Read it before rendering a body and
// pass it to PutIf.
func (c *ResponseCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Put stores body under key, evicting the least recently used entry when full.
func (c *ResponseCache) Put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, body)
}

// PutIf stores body only if no Purge happened since gen was read. A body
// rendered from data older than the last purge is dropped.
func (c *ResponseCache) PutIf(key string, body []byte, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.put(key, body)
	return true
}

func (c *ResponseCache) put(key string, body []byte) {
	if c.maxEntries <= 0 {
		return
	}
	if _, ok := c.entries[key]; ok {
		c.removeFromOrder(key)
	} else {
		for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[key] = &cacheEntry{body: body, storedAt: c.now()}
	c.order = append(c.order, key)
}

// Purge drops every entry. Called whenever branch or record data changes.
func (c *ResponseCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = nil
	c.gen++
}

// Stats returns cache performance statistics.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *ResponseCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
