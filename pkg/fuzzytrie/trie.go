// Package fuzzytrie is a character trie searched with Levenshtein automata.
//
// Keys are split into characters (not bytes) and every inserted value hangs off
// the branch of its last character as a terminal node. Searching builds an
// automaton for the query and walks the trie depth first; as soon as a branch
// drives the automaton into its sink state the whole subtree is skipped.
//
//	trie, _ := fuzzytrie.New[string](2, false)
//	trie.Insert("hello").InsertValue("hello item")
//	trie.Insert("helo").InsertValue("helo item")
//
//	var out fuzzytrie.Matches[string]
//	_ = trie.FuzzySearch("hello", &out)
//	// out: {0 "hello item"} {1 "helo item"}
//
// A Trie is not safe for concurrent mutation. Callers either finish every
// insert before searching or guard the trie with a read/write lock.
package fuzzytrie

import "unicode/utf8"

// Trie maps string keys to values of type T and supports fuzzy lookups.
type Trie[T comparable] struct {
	root     Node
	values   *ValueTable[T]
	config   Config
	builders []*Builder // one per override, then the default
}

// New creates a trie using one configuration for every query length.
func New[T comparable](distance uint8, transposition bool) (*Trie[T], error) {
	return NewWithConfig[T](Config{
		Default: LevenshteinConfig{Distance: distance, Transposition: transposition},
	})
}

// NewWithConfig creates a trie with per-length overrides.
func NewWithConfig[T comparable](cfg Config) (*Trie[T], error) {
	t := &Trie[T]{root: newBranch(0), values: NewValueTable[T]()}
	if err := t.configure(cfg); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie[T]) configure(cfg Config) error {
	cfg = cfg.Sorted()
	builders := make([]*Builder, len(cfg.Overrides)+1)
	for i := range builders {
		c := cfg.at(i)
		b, err := NewBuilder(c.Distance, c.Transposition)
		if err != nil {
			return err
		}
		builders[i] = b
	}
	t.config = cfg
	t.builders = builders
	return nil
}

// Config returns the sorted configuration of the trie.
func (t *Trie[T]) Config() Config { return t.config }

// builderFor returns the builder of the configuration Select picks for n.
func (t *Trie[T]) builderFor(n int) *Builder {
	return t.builders[t.config.slot(n)]
}

// Insert walks or extends the branch chain for key and returns a handle used
// to attach the value.
func (t *Trie[T]) Insert(key string) *InsertHandle[T] {
	node := &t.root
	for _, c := range key {
		node = node.child(c)
	}
	return &InsertHandle[T]{values: t.values, to: node}
}

// FuzzySearch pushes every value whose key is within the configured distance
// of key.
func (t *Trie[T]) FuzzySearch(key string, out Collector[T]) error {
	a, err := t.builderFor(utf8.RuneCountInString(key)).Build(key)
	if err != nil {
		return err
	}
	t.Walk(a, out)
	return nil
}

// PrefixFuzzySearch pushes every value whose key starts with something within
// the configured distance of key.
func (t *Trie[T]) PrefixFuzzySearch(key string, out Collector[T]) error {
	a, err := t.builderFor(utf8.RuneCountInString(key)).BuildPrefix(key)
	if err != nil {
		return err
	}
	t.Walk(a, out)
	return nil
}

// Walk runs a prebuilt automaton over the trie.
func (t *Trie[T]) Walk(a *Automaton, out Collector[T]) {
	start := a.Start()
	for i := range t.root.Children {
		if t.search(&t.root.Children[i], a, start, out) {
			return
		}
	}
}

func (t *Trie[T]) search(n *Node, a *Automaton, state int, out Collector[T]) bool {
	if n.Terminal {
		if d, ok := a.Distance(state); ok {
			return out.Push(d, t.values.Get(n.Value))
		}
		return false
	}
	next := a.Step(state, n.Char)
	if next == SinkState {
		return false
	}
	for i := range n.Children {
		if t.search(&n.Children[i], a, next, out) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct values.
func (t *Trie[T]) Len() int { return t.values.Len() }

// Values exposes the value table.
func (t *Trie[T]) Values() *ValueTable[T] { return t.values }

// Nodes counts every node, root included.
func (t *Trie[T]) Nodes() int { return t.root.countNodes() }

// InsertHandle attaches a value to the branch a key ended on.
type InsertHandle[T comparable] struct {
	values *ValueTable[T]
	to     *Node
}

// InsertValue stores v, reusing its table slot when an equal value exists,
// and adds a terminal for it. Returns the value index.
func (h *InsertHandle[T]) InsertValue(v T) int {
	i, _ := h.values.Intern(v)
	h.to.Children = append(h.to.Children, newTerminal(i))
	return i
}

// InsertUnique is InsertValue, except nothing happens when this key already
// holds v.
func (h *InsertHandle[T]) InsertUnique(v T) int {
	i, existed := h.values.Intern(v)
	if existed && h.to.hasTerminal(i) {
		return i
	}
	h.to.Children = append(h.to.Children, newTerminal(i))
	return i
}

// Reconfigure swaps the Levenshtein configuration, keeping the contents.
func (t *Trie[T]) Reconfigure(cfg Config) error { return t.configure(cfg) }
