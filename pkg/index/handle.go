package index

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Handle publishes the active index to concurrent readers. Swapping in a
// rebuilt index waits for in-flight queries, then closes the old one.
type Handle struct {
	mu    sync.RWMutex
	idx   Index
	cache *QueryCache
}

// NewHandle returns an empty handle with a query cache of cacheSize entries.
func NewHandle(cacheSize int) *Handle {
	return &Handle{cache: NewQueryCache(cacheSize)}
}

// Swap installs idx, which may be nil, and closes the previous index.
func (h *Handle) Swap(idx Index) error {
	h.mu.Lock()
	old := h.idx
	h.idx = idx
	h.cache.Purge()
	h.mu.Unlock()

	if old == nil {
		return nil
	}
	return old.Close()
}

// Open loads the backend's artifact from dir and swaps it in. On failure the
// current index stays active.
func (h *Handle) Open(b Backend, dir string, opts Options) error {
	idx, err := Load(b, dir, opts)
	if err != nil {
		return err
	}
	return h.Swap(idx)
}

// Loaded reports whether an index is active.
func (h *Handle) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idx != nil
}

// Backend returns the active backend, or "" without an index.
func (h *Handle) Backend() Backend {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.idx == nil {
		return ""
	}
	return h.idx.Backend()
}

// Count returns the number of indexed headwords.
func (h *Handle) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.idx == nil {
		return 0
	}
	return h.idx.Count()
}

// Query answers from the cache or the active index. Without an index it
// fails with ErrIndexUnavailable.
func (h *Handle) Query(q string, p Params) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.idx == nil {
		return nil, &Error{Op: "query", Err: ErrIndexUnavailable}
	}
	if cands, ok := h.cache.Get(q, p); ok {
		return cands, nil
	}
	start := time.Now()
	cands, err := h.idx.Query(q, p)
	if err != nil {
		return nil, err
	}
	h.cache.Put(q, p, cands)
	log.Debugf("query %q took %v", q, time.Since(start))
	return cands, nil
}

// CacheStats exposes the query cache counters.
func (h *Handle) CacheStats() map[string]int { return h.cache.Stats() }

// Close closes the active index.
func (h *Handle) Close() error { return h.Swap(nil) }
