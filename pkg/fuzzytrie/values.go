package fuzzytrie

import "fmt"

// ValueTable is a bidirectional index <-> value mapping. Values are unique by
// equality, so several trie paths can refer to one stored value. The table
// only grows.
type ValueTable[T comparable] struct {
	values []T
	index  map[T]int
}

// NewValueTable returns an empty table.
func NewValueTable[T comparable]() *ValueTable[T] {
	return &ValueTable[T]{index: make(map[T]int)}
}

// Intern returns the index of v, allocating one if v is new. existed reports
// whether v was already present.
func (vt *ValueTable[T]) Intern(v T) (i int, existed bool) {
	if i, ok := vt.index[v]; ok {
		return i, true
	}
	i = len(vt.values)
	vt.values = append(vt.values, v)
	vt.index[v] = i
	return i, false
}

// Lookup returns the index of v.
func (vt *ValueTable[T]) Lookup(v T) (int, bool) {
	i, ok := vt.index[v]
	return i, ok
}

// Get returns the value stored at i. An index outside the table means a
// terminal was written without going through the table, which is a bug.
func (vt *ValueTable[T]) Get(i int) T {
	if i < 0 || i >= len(vt.values) {
		panic(fmt.Sprintf("fuzzytrie: value index %d outside table of %d", i, len(vt.values)))
	}
	return vt.values[i]
}

// Len returns the number of distinct values.
func (vt *ValueTable[T]) Len() int { return len(vt.values) }

// Values returns the values in index order. The slice must not be modified.
func (vt *ValueTable[T]) Values() []T { return vt.values }

func valueTableFrom[T comparable](values []T) (*ValueTable[T], error) {
	vt := &ValueTable[T]{values: values, index: make(map[T]int, len(values))}
	for i, v := range values {
		if _, dup := vt.index[v]; dup {
			return nil, fmt.Errorf("duplicate value at index %d", i)
		}
		vt.index[v] = i
	}
	return vt, nil
}
