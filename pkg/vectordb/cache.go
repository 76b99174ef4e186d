package vectordb

import (
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CacheEntry wraps a cached result with its insertion time.
type CacheEntry struct {
	Result     *RetrievalResult
	InsertedAt time.Time
}

// ResponseCache is a TTL and size bounded cache of search results keyed by
// (query, topK). Eviction is FIFO on insertion order; reads never refresh
// an entry's position.
//
// Each method is atomic on its own, but a Get followed by a Put is not:
// concurrent misses on the same key both search and the last Put wins.
type ResponseCache struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[uint64, CacheEntry]
	size    int
	ttl     time.Duration
	clock   Clock

	onEvict func(key uint64)
}

// NewResponseCache creates a cache holding at most size fresh-or-stale entries.
func NewResponseCache(size int, ttl time.Duration, clock Clock) *ResponseCache {
	return &ResponseCache{
		entries: orderedmap.New[uint64, CacheEntry](),
		size:    size,
		ttl:     ttl,
		clock:   clock,
	}
}

// CacheKey hashes a query and topK into a cache key.
func CacheKey(query string, topK int) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(query)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strconv.Itoa(topK))
	return d.Sum64()
}

// Get returns the entry for key if it is younger than the TTL. Stale
// entries are reported as absent but left in place.
func (c *ResponseCache) Get(key uint64) (CacheEntry, bool) {
	c.mu.Lock()
	entry, ok := c.entries.Get(key)
	c.mu.Unlock()

	if !ok || c.clock.Now().Sub(entry.InsertedAt) >= c.ttl {
		return CacheEntry{}, false
	}
	return entry, true
}

// Put stores result under key as the newest entry and evicts the oldest
// entries until the cache is back within its size bound.
func (c *ResponseCache) Put(key uint64, result *RetrievalResult) {
	entry := CacheEntry{Result: result.clone(), InsertedAt: c.clock.Now()}

	c.mu.Lock()
	defer c.mu.Unlock()

	// re-inserting must move the key to the back of the order
	c.entries.Delete(key)
	c.entries.Set(key, entry)

	for c.entries.Len() > c.size {
		oldest := c.entries.Oldest()
		c.entries.Delete(oldest.Key)
		if c.onEvict != nil {
			c.onEvict(oldest.Key)
		}
	}
}

// Clear removes every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = orderedmap.New[uint64, CacheEntry]()
}

// Len returns the number of resident entries, stale ones included.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Keys returns resident keys from oldest to newest.
func (c *ResponseCache) Keys() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]uint64, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
