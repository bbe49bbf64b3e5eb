package index

import (
	"sync"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
)

// prefixAutomaton accepts every key starting with its bytes.
type prefixAutomaton []byte

const deadState = -1

func (p prefixAutomaton) Start() int { return 0 }

func (p prefixAutomaton) IsMatch(s int) bool { return s == len(p) }

func (p prefixAutomaton) CanMatch(s int) bool { return s != deadState }

func (p prefixAutomaton) WillAlwaysMatch(s int) bool { return s == len(p) }

func (p prefixAutomaton) Accept(s int, b byte) int {
	switch {
	case s == deadState:
		return deadState
	case s == len(p):
		return s
	case p[s] == b:
		return s + 1
	}
	return deadState
}

// startsWith turns an automaton into one that also accepts every extension
// of the keys it accepts.
type startsWith struct {
	inner vellum.Automaton
}

// matched is the absorbing state entered once the inner automaton matched.
const matched = -2

func (s startsWith) Start() int {
	st := s.inner.Start()
	if s.inner.IsMatch(st) {
		return matched
	}
	return st
}

func (s startsWith) IsMatch(st int) bool { return st == matched }

func (s startsWith) CanMatch(st int) bool { return st == matched || s.inner.CanMatch(st) }

func (s startsWith) WillAlwaysMatch(st int) bool { return st == matched }

func (s startsWith) Accept(st int, b byte) int {
	if st == matched {
		return matched
	}
	next := s.inner.Accept(st, b)
	if s.inner.IsMatch(next) {
		return matched
	}
	return next
}

// The parametric tables are expensive to compute and read-only afterwards.
var (
	lev1 = sync.OnceValues(func() (*levenshtein.LevenshteinAutomatonBuilder, error) {
		return levenshtein.NewLevenshteinAutomatonBuilder(1, false)
	})
	lev2 = sync.OnceValues(func() (*levenshtein.LevenshteinAutomatonBuilder, error) {
		return levenshtein.NewLevenshteinAutomatonBuilder(2, false)
	})
)

func levenshteinDFA(q string, d uint8) (vellum.Automaton, error) {
	builder := lev1
	if d > 1 {
		builder = lev2
	}
	lb, err := builder()
	if err != nil {
		return nil, err
	}
	dfa, err := lb.BuildDfa(q, d)
	if err != nil {
		return nil, err
	}
	return dfa, nil
}
