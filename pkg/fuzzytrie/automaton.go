package fuzzytrie

import (
	"errors"
	"fmt"
)

const (
	// MaxDistance is the largest edit distance a Builder accepts.
	MaxDistance = 4
	// MaxQueryLen is the longest query, in characters, an automaton can be
	// built for. Every distinct query character needs one alphabet symbol and
	// symbols are stored in a byte.
	MaxQueryLen = 255

	// SinkState is the reject state. Nothing reachable from it can match.
	SinkState = 0
)

var (
	ErrDistanceTooLarge = errors.New("fuzzytrie: levenshtein distance too large")
	ErrQueryTooLong     = errors.New("fuzzytrie: query too long for automaton")
)

// Builder creates query specific automata for a fixed distance and
// transposition setting. Builders are cheap to keep around and are shared by
// every query that resolves to the same LevenshteinConfig.
type Builder struct {
	distance      uint8
	transposition bool
}

// NewBuilder validates the configuration and returns a reusable Builder.
func NewBuilder(distance uint8, transposition bool) (*Builder, error) {
	if distance > MaxDistance {
		return nil, fmt.Errorf("%w: %d > %d", ErrDistanceTooLarge, distance, MaxDistance)
	}
	return &Builder{distance: distance, transposition: transposition}, nil
}

// Distance reports the configured maximum distance.
func (b *Builder) Distance() uint8 { return b.distance }

// Build returns an automaton matching keys within the distance of query.
func (b *Builder) Build(query string) (*Automaton, error) {
	return newAutomaton(query, b.distance, b.transposition, false)
}

// BuildPrefix returns an automaton matching keys that have a prefix within
// the distance of query.
func (b *Builder) BuildPrefix(query string) (*Automaton, error) {
	return newAutomaton(query, b.distance, b.transposition, true)
}

// Automaton is a lazily determinized Levenshtein automaton over characters.
//
// A state is the edit-distance row against the query, clipped to distance+1,
// plus the previous row and character when transpositions are enabled. The
// number of such rows is finite, so memoizing them yields a DFA whose states
// and transitions are only materialized when a walk reaches them. Characters
// absent from the query all behave alike and share one alphabet symbol.
//
// An Automaton is bound to one query and must not be shared between
// goroutines.
type Automaton struct {
	query         []uint8
	symbols       map[rune]uint8
	max           uint8
	transposition bool
	prefix        bool

	start  int
	states []autState
	trans  [][]int32
	ids    map[string]int
	key    []byte
}

type autState struct {
	row  []uint8
	prev []uint8
	last uint8
	best uint8
}

func newAutomaton(query string, max uint8, transposition, prefix bool) (*Automaton, error) {
	if max > MaxDistance {
		return nil, fmt.Errorf("%w: %d > %d", ErrDistanceTooLarge, max, MaxDistance)
	}
	runes := []rune(query)
	if len(runes) > MaxQueryLen {
		return nil, fmt.Errorf("%w: %d characters", ErrQueryTooLong, len(runes))
	}

	a := &Automaton{
		query:         make([]uint8, len(runes)),
		symbols:       make(map[rune]uint8, len(runes)),
		max:           max,
		transposition: transposition,
		prefix:        prefix,
		ids:           make(map[string]int),
	}
	for i, r := range runes {
		s, ok := a.symbols[r]
		if !ok {
			s = uint8(len(a.symbols) + 1)
			a.symbols[r] = s
		}
		a.query[i] = s
	}

	// slot 0 is the sink
	a.states = append(a.states, autState{})
	a.trans = append(a.trans, nil)

	n := len(a.query)
	row := make([]uint8, n+1)
	for j := range row {
		row[j] = a.clip(j)
	}
	a.start = a.intern(autState{row: row, best: row[n]})
	return a, nil
}

// Start returns the initial state.
func (a *Automaton) Start() int { return a.start }

// Prefix reports whether the automaton was built in prefix mode.
func (a *Automaton) Prefix() bool { return a.prefix }

// Step feeds one character and returns the next state.
func (a *Automaton) Step(state int, r rune) int {
	if state == SinkState {
		return SinkState
	}
	sym := a.symbols[r]
	if next := a.trans[state][sym]; next >= 0 {
		return int(next)
	}
	cur := a.states[state]
	id := a.intern(a.advance(cur, sym))
	a.trans[state][sym] = int32(id)
	return id
}

// StepString feeds every character of s.
func (a *Automaton) StepString(state int, s string) int {
	for _, r := range s {
		state = a.Step(state, r)
		if state == SinkState {
			break
		}
	}
	return state
}

// Distance returns the exact edit distance accepted at state. In prefix mode
// it is the smallest distance between the query and any prefix of the input
// consumed so far. ok is false when the state does not match.
func (a *Automaton) Distance(state int) (d uint8, ok bool) {
	if state == SinkState {
		return 0, false
	}
	st := a.states[state]
	d = st.row[len(a.query)]
	if a.prefix {
		d = st.best
	}
	if d > a.max {
		return 0, false
	}
	return d, true
}

// States reports how many states have been materialized, sink included.
func (a *Automaton) States() int { return len(a.states) }

func (a *Automaton) clip(v int) uint8 {
	if v > int(a.max)+1 {
		return a.max + 1
	}
	return uint8(v)
}

func (a *Automaton) advance(cur autState, sym uint8) autState {
	n := len(a.query)
	row := make([]uint8, n+1)
	row[0] = a.clip(int(cur.row[0]) + 1)
	for j := 1; j <= n; j++ {
		cost := 1
		if a.query[j-1] == sym {
			cost = 0
		}
		v := min(int(cur.row[j])+1, int(row[j-1])+1, int(cur.row[j-1])+cost)
		if a.transposition && j >= 2 && cur.prev != nil && sym != 0 &&
			sym == a.query[j-2] && cur.last == a.query[j-1] {
			v = min(v, int(cur.prev[j-2])+1)
		}
		row[j] = a.clip(v)
	}

	next := autState{row: row, best: row[n]}
	if a.prefix && cur.best < next.best {
		next.best = cur.best
	}
	if a.transposition {
		next.prev = cur.row
		next.last = sym
	}
	return next
}

func (a *Automaton) dead(s autState) bool {
	if a.prefix && s.best <= a.max {
		return false
	}
	for _, v := range s.row {
		if v <= a.max {
			return false
		}
	}
	return true
}

func (a *Automaton) intern(s autState) int {
	if a.dead(s) {
		return SinkState
	}

	a.key = append(a.key[:0], s.row...)
	if a.transposition {
		if s.prev == nil {
			for range s.row {
				a.key = append(a.key, 0xff)
			}
		} else {
			a.key = append(a.key, s.prev...)
		}
		a.key = append(a.key, s.last)
	}
	if a.prefix {
		a.key = append(a.key, s.best)
	}
	if id, ok := a.ids[string(a.key)]; ok {
		return id
	}

	id := len(a.states)
	a.states = append(a.states, s)
	trans := make([]int32, len(a.symbols)+1)
	for i := range trans {
		trans[i] = -1
	}
	a.trans = append(a.trans, trans)
	a.ids[string(a.key)] = id
	return id
}
