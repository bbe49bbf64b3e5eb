package index

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blevesearch/vellum"
	"github.com/charmbracelet/log"
	"github.com/edsrzf/mmap-go"
)

// StrategyCap is the default bound on matches taken from each sub-query.
const StrategyCap = 50

// shortQuery is the longest query answered by exact prefix alone.
const shortQuery = 2

func buildFST(words []string, w io.Writer) error {
	bw := bufio.NewWriter(w)
	b, err := vellum.New(bw, nil)
	if err != nil {
		return err
	}
	for i, word := range words {
		if err := b.Insert([]byte(word), uint64(i)); err != nil {
			return err
		}
	}
	if err := b.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

type fstIndex struct {
	data  mmap.MMap
	fst   *vellum.FST
	limit int
}

func loadFST(path string, limit int) (*fstIndex, error) {
	if limit <= 0 {
		limit = StrategyCap
	}
	data, err := mapFile(path)
	if err != nil {
		return nil, unavailable(BackendFST, path, err)
	}
	payload, err := verify(data)
	if err != nil {
		_ = data.Unmap()
		return nil, unavailable(BackendFST, path, err)
	}
	fst, err := vellum.Load(payload)
	if err != nil {
		_ = data.Unmap()
		return nil, unavailable(BackendFST, path, err)
	}
	log.Debugf("loaded fst index %s with %d words", path, fst.Len())
	return &fstIndex{data: data, fst: fst, limit: limit}, nil
}

func (x *fstIndex) Backend() Backend { return BackendFST }

func (x *fstIndex) Count() int { return x.fst.Len() }

func (x *fstIndex) Close() error {
	err := x.fst.Close()
	return errors.Join(err, x.data.Unmap())
}

// Query runs the cheap strategies, then the wide edit distance passes when
// p.Expensive is set, and ranks the union.
func (x *fstIndex) Query(q string, p Params) (_ []string, err error) {
	defer recoverCorrupt(BackendFST, &err)
	start := time.Now()
	acc := map[string]Flags{}

	if err := x.collect(prefixAutomaton(q), ExactPrefix, q, acc); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(q) > shortQuery {
		if low := strings.ToLower(q); low != q {
			if err := x.collect(prefixAutomaton(low), ExactPrefixCaseI, q, acc); err != nil {
				return nil, err
			}
		}
		if err := x.collectLeven(q, 1, true, Leven1, acc); err != nil {
			return nil, err
		}
	}

	if p.Expensive {
		if len(acc) == 0 {
			if err := x.collectLeven(q, 2, true, Leven2, acc); err != nil {
				return nil, err
			}
		}
		if err := x.collectLeven(q, 1, false, LevenFull, acc); err != nil {
			return nil, err
		}
	}

	cands := make([]Candidate, 0, len(acc))
	for w, f := range acc {
		cands = append(cands, Candidate{Word: w, Flags: f})
	}
	out := Rank(cands)
	log.Debugf("fst query %q: %d candidates in %v", q, len(out), time.Since(start))
	return out, nil
}

func (x *fstIndex) collectLeven(q string, d uint8, prefix bool, flag Flags, acc map[string]Flags) error {
	dfa, err := levenshteinDFA(q, d)
	if err != nil {
		return &Error{Backend: BackendFST, Op: "query", Err: err}
	}
	if prefix {
		dfa = startsWith{inner: dfa}
	}
	return x.collect(dfa, flag, q, acc)
}

// collect takes up to limit matches of aut, tagging each with flag and its own
// score against q.
func (x *fstIndex) collect(aut vellum.Automaton, flag Flags, q string, acc map[string]Flags) error {
	it, err := x.fst.Search(aut, nil, nil)
	for n := 0; err == nil && n < x.limit; n++ {
		key, _ := it.Current()
		w := string(key)
		acc[w] |= flag | Score(q, w)
		err = it.Next()
	}
	if it != nil {
		_ = it.Close()
	}
	if err != nil && !errors.Is(err, vellum.ErrIteratorDone) {
		return &Error{Backend: BackendFST, Op: "query", Err: err}
	}
	return nil
}
