// Package dict is the dictionary service. A Dictionary owns the record store,
// the fuzzy trie and the candidate index handle; it is built once at startup
// and passed to every front end.
package dict

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bastiangx/offdict/internal/logger"
	"github.com/bastiangx/offdict/internal/utils"
	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/fuzzytrie"
	"github.com/bastiangx/offdict/pkg/index"
	"github.com/bastiangx/offdict/pkg/store"
	"github.com/charmbracelet/log"
)

// MergeOperatorName is the name the definition merge is registered under.
const MergeOperatorName = "offdict.def_merge"

var (
	ErrNotFound     = errors.New("headword not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// Dictionary is safe for concurrent use. Imports and trie rebuilds take the
// trie's write lock, queries its read lock.
type Dictionary struct {
	opts  Options
	store *store.Store
	index *index.Handle
	log   *log.Logger

	mu   sync.RWMutex
	trie *fuzzytrie.Trie[string]
}

// Open opens or creates the dictionary in opts.Dir. A missing or corrupt
// index is not an error: searches fall back to the trie until one is built.
func Open(opts Options) (*Dictionary, error) {
	if err := utils.EnsureDir(opts.Dir); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(opts.dbPath())
	if err != nil {
		return nil, err
	}
	if err := st.RegisterMergeOperator(MergeOperatorName, mergeOperator); err != nil {
		st.Close()
		return nil, err
	}

	trie, err := fuzzytrie.LoadOrNew[string](opts.triePath(), opts.Trie)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load trie: %w", err)
	}
	if err := trie.Reconfigure(opts.Trie); err != nil {
		st.Close()
		return nil, err
	}

	d := &Dictionary{
		opts:  opts,
		store: st,
		index: index.NewHandle(opts.CacheSize),
		log:   logger.New("offdict"),
		trie:  trie,
	}
	if err := d.index.Open(opts.Backend, opts.Dir, opts.Index); err != nil {
		if !errors.Is(err, index.ErrIndexUnavailable) {
			d.Close()
			return nil, err
		}
		d.log.Warn("no candidate index, searching the trie until one is built", "err", err)
	}
	d.log.Debug("dictionary open", "dir", opts.Dir, "words", trie.Len(), "index", d.index.Count())
	return d, nil
}

// mergeOperator adapts the definition merge to the store.
func mergeOperator(key, existing []byte, operands [][]byte) []byte {
	headword, _, err := store.DecodeKey(key)
	if err != nil {
		log.Warnf("merge on malformed key %x: %v", key, err)
	}
	return definition.Merge(headword, existing, operands)
}

// Close releases the index and the store.
func (d *Dictionary) Close() error {
	return errors.Join(d.index.Close(), d.store.Close())
}

// Options returns the options the dictionary was opened with.
func (d *Dictionary) Options() Options { return d.opts }

// SaveTrie writes the trie snapshot.
func (d *Dictionary) SaveTrie() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start := time.Now()
	if err := d.trie.Save(d.opts.triePath()); err != nil {
		return err
	}
	d.log.Debug("saved trie", "words", d.trie.Len(), "took", time.Since(start))
	return nil
}

// RebuildTrie replaces the trie with one holding every headword in the
// store, then saves it.
func (d *Dictionary) RebuildTrie() (int, error) {
	words, err := d.store.Headwords()
	if err != nil {
		return 0, err
	}
	trie, err := fuzzytrie.NewWithConfig[string](d.opts.Trie)
	if err != nil {
		return 0, err
	}
	for _, w := range words {
		trie.Insert(w).InsertUnique(w)
	}

	d.mu.Lock()
	d.trie = trie
	d.mu.Unlock()
	return len(words), d.SaveTrie()
}

// Compact folds pending merge operands into stored records.
func (d *Dictionary) Compact() (int, error) {
	return d.store.Compact(store.DefaultCompactBatch)
}

// Stats summarizes every component.
type Stats struct {
	Store     store.Stats    `json:"store"`
	Words     int            `json:"words"`
	TrieNodes int            `json:"trie_nodes"`
	Backend   index.Backend  `json:"backend,omitempty"`
	Indexed   int            `json:"indexed"`
	Cache     map[string]int `json:"cache"`
}

// Stats collects counters from the store, trie and index.
func (d *Dictionary) Stats() (Stats, error) {
	st, err := d.store.Stats()
	if err != nil {
		return Stats{}, err
	}
	d.mu.RLock()
	words, nodes := d.trie.Len(), d.trie.Nodes()
	d.mu.RUnlock()
	return Stats{
		Store:     st,
		Words:     words,
		TrieNodes: nodes,
		Backend:   d.index.Backend(),
		Indexed:   d.index.Count(),
		Cache:     d.index.CacheStats(),
	}, nil
}
