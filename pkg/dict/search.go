package dict

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/offdict/internal/utils"
	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/fuzzytrie"
	"github.com/bastiangx/offdict/pkg/index"
	"github.com/bastiangx/offdict/pkg/store"
	"golang.org/x/sync/errgroup"
)

// retrieveWorkers bounds concurrent record reads per search.
const retrieveWorkers = 8

func (d *Dictionary) clean(q string) (string, error) {
	s, ok := utils.CleanQuery(q, d.opts.MaxQuery)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuery, q)
	}
	return s, nil
}

func (d *Dictionary) limit(n int) int {
	if n <= 0 {
		return d.opts.Limit
	}
	return n
}

// Candidates returns up to n headwords matching q, best first. The active
// index answers when loaded; otherwise the trie is searched by prefix.
func (d *Dictionary) Candidates(q string, n int, expensive bool) ([]string, error) {
	q, err := d.clean(q)
	if err != nil {
		return nil, err
	}
	n = d.limit(n)

	cands, err := d.index.Query(q, index.Params{Expensive: expensive || d.opts.Expensive, Num: n})
	switch {
	case err == nil:
	case errors.Is(err, index.ErrIndexUnavailable):
		d.log.Debug("index unavailable, using trie", "query", q)
		cands, err = d.trieCandidates(q)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	cands = utils.Dedup(slices.Clone(cands))
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands, nil
}

// trieCandidates ranks prefix-fuzzy trie matches by distance, then length.
func (d *Dictionary) trieCandidates(q string) ([]string, error) {
	var m fuzzytrie.Matches[string]
	d.mu.RLock()
	err := d.trie.PrefixFuzzySearch(q, &m)
	d.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortMatches(m, true)
	return m.Values(), nil
}

func sortMatches(m fuzzytrie.Matches[string], byLength bool) {
	slices.SortFunc(m, func(a, b fuzzytrie.Match[string]) int {
		if a.Distance != b.Distance {
			return int(a.Distance) - int(b.Distance)
		}
		if byLength {
			if la, lb := utf8.RuneCountInString(a.Value), utf8.RuneCountInString(b.Value); la != lb {
				return la - lb
			}
		}
		return strings.Compare(a.Value, b.Value)
	})
}

// Lookup returns up to n headwords within the trie's edit distance of q,
// nearest first.
func (d *Dictionary) Lookup(q string, n int) ([]fuzzytrie.Match[string], error) {
	q, err := d.clean(q)
	if err != nil {
		return nil, err
	}
	var m fuzzytrie.Matches[string]
	d.mu.RLock()
	err = d.trie.FuzzySearch(q, &m)
	d.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortMatches(m, false)
	return m[:min(len(m), d.limit(n))], nil
}

// Retrieve returns every dictionary's definition of word.
func (d *Dictionary) Retrieve(word string) (definition.Wrapper, error) {
	var values [][]byte
	err := d.store.PrefixScan(store.HeadwordPrefix(word), func(_, value []byte) error {
		values = append(values, value)
		return nil
	})
	if err != nil {
		return definition.Wrapper{}, err
	}
	if len(values) == 0 {
		return definition.Wrapper{}, fmt.Errorf("%w: %q", ErrNotFound, word)
	}
	return definition.DecodeWrapper(definition.Merge(word, nil, values))
}

// Search resolves candidates for q and retrieves their definitions in rank
// order. Candidates without stored records are dropped.
func (d *Dictionary) Search(q string, n int, expensive bool) ([]definition.Wrapper, error) {
	start := time.Now()
	cands, err := d.Candidates(q, n, expensive)
	if err != nil {
		return nil, err
	}

	found := make([]definition.Wrapper, len(cands))
	ok := make([]bool, len(cands))
	var g errgroup.Group
	g.SetLimit(retrieveWorkers)
	for i, word := range cands {
		g.Go(func() error {
			w, err := d.Retrieve(word)
			if errors.Is(err, ErrNotFound) {
				d.log.Debug("candidate has no records", "word", word)
				return nil
			}
			if err != nil {
				return err
			}
			found[i], ok[i] = w, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]definition.Wrapper, 0, len(cands))
	for i, w := range found {
		if ok[i] {
			out = append(out, w)
		}
	}
	d.log.Debug("search", "query", q, "results", len(out), "took", time.Since(start))
	return out, nil
}

// BuildIndex builds the named backends, every known one when none is given,
// from the stored vocabulary. The configured backend is then reloaded.
func (d *Dictionary) BuildIndex(backends ...index.Backend) (int, error) {
	if len(backends) == 0 {
		backends = index.Backends
	}
	words, err := d.store.Headwords()
	if err != nil {
		return 0, err
	}

	var g errgroup.Group
	for _, b := range backends {
		g.Go(func() error { return index.Build(b, words, d.opts.Dir, d.opts.Index) })
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if slices.Contains(backends, d.opts.Backend) {
		if err := d.index.Open(d.opts.Backend, d.opts.Dir, d.opts.Index); err != nil {
			return len(words), err
		}
	}
	return len(words), nil
}
