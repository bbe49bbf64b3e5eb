package index

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Flags records how a candidate matched the query. A candidate found by
// several strategies carries all of their flags.
type Flags uint16

const (
	Exact Flags = 1 << iota
	ExactCaseIns
	EqualLen
	ExactPrefix
	ExactPrefixCaseI
	Leven1
	Leven2
	LevenFull
)

// Has reports whether every flag of x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// Score derives the flags that come from comparing the candidate itself
// with the query, independent of the strategy that found it.
func Score(query, cand string) Flags {
	switch {
	case query == cand:
		return Exact
	case strings.EqualFold(query, cand):
		return ExactCaseIns
	case utf8.RuneCountInString(query) == utf8.RuneCountInString(cand):
		return EqualLen
	}
	return 0
}

// Priority maps flags to a rank, lower is better. shortRank is the
// candidate's position when all num candidates are ordered by length.
func (f Flags) Priority(shortRank, num int) float64 {
	switch {
	case f.Has(Exact):
		return 0
	case f.Has(ExactCaseIns):
		return 0.1
	}
	var p float64
	switch {
	case f.Has(EqualLen), f.Has(ExactPrefix):
		p = 0.2
	case f.Has(ExactPrefixCaseI):
		p = 0.4
	case f.Has(Leven1):
		p = 0.7
	default:
		p = 1
	}
	if f.Has(LevenFull) {
		p -= 0.1
	}
	if num > 0 {
		p += float64(shortRank) / float64(num) * 0.1
	}
	return p
}

// Candidate is a headword with its accumulated flags.
type Candidate struct {
	Word  string
	Flags Flags
}

// Rank orders candidates best first. Ties on priority keep lexical order.
func Rank(cands []Candidate) []string {
	sort.Slice(cands, func(i, j int) bool { return cands[i].Word < cands[j].Word })

	byLen := make([]int, len(cands))
	for i := range byLen {
		byLen[i] = i
	}
	sort.SliceStable(byLen, func(i, j int) bool {
		return utf8.RuneCountInString(cands[byLen[i]].Word) < utf8.RuneCountInString(cands[byLen[j]].Word)
	})

	prio := make([]float64, len(cands))
	for rank, i := range byLen {
		prio[i] = cands[i].Flags.Priority(rank, len(cands))
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return prio[order[i]] < prio[order[j]] })

	out := make([]string, len(cands))
	for i, j := range order {
		out[i] = cands[j].Word
	}
	return out
}
