package index

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// QueryCache remembers ranked candidate lists per query, keyed in a patricia
// trie. The least recently used entry is evicted when the cache is full.
type QueryCache struct {
	trie        *patricia.Trie
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	misses      int64
	maxEntries  int
	mu          sync.Mutex
}

// NewQueryCache returns a cache holding up to maxEntries queries. A
// non-positive size disables caching.
func NewQueryCache(maxEntries int) *QueryCache {
	return &QueryCache{
		trie:       patricia.NewTrie(),
		accessTime: make(map[string]int64, max(maxEntries, 0)),
		maxEntries: maxEntries,
	}
}

func cacheKey(q string, p Params) string {
	return fmt.Sprintf("%s\x00%t/%d", q, p.Expensive, p.Num)
}

// Get returns a copy of the cached candidates.
func (c *QueryCache) Get(q string, p Params) ([]string, bool) {
	if c.maxEntries <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(q, p)
	item := c.trie.Get(patricia.Prefix(key))
	if item == nil {
		c.misses++
		return nil, false
	}
	c.hits++
	c.markAccessed(key)
	return append([]string(nil), item.([]string)...), true
}

// Put stores a copy of cands.
func (c *QueryCache) Put(q string, p Params, cands []string) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(q, p)
	if _, ok := c.accessTime[key]; !ok && len(c.accessTime) >= c.maxEntries {
		c.evictLRU()
	}
	c.trie.Set(patricia.Prefix(key), append([]string(nil), cands...))
	c.markAccessed(key)
}

// Purge empties the cache.
func (c *QueryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trie = patricia.NewTrie()
	c.accessTime = make(map[string]int64, max(c.maxEntries, 0))
}

// Stats reports size and hit counters.
func (c *QueryCache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]int{
		"cacheEntries": len(c.accessTime),
		"maxEntries":   c.maxEntries,
		"cacheHits":    int(c.hits),
		"cacheMisses":  int(c.misses),
	}
}

func (c *QueryCache) markAccessed(key string) {
	c.accessCount++
	c.accessTime[key] = c.accessCount
}

func (c *QueryCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = 9223372036854775807

	for key, t := range c.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}

	if oldestKey != "" {
		c.trie.Delete(patricia.Prefix(oldestKey))
		delete(c.accessTime, oldestKey)
		log.Debugf("Evicted query '%s' from cache", oldestKey)
	}
}
