package definition

import (
	"bytes"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
)

// set holds the latest record per dictionary name, keyed by the record's
// canonical encoding so identical rewrites are recognized.
type set struct {
	items map[string]entry
}

type entry struct {
	sum uint64
	raw []byte
	def Def
}

func newSet() *set { return &set{items: make(map[string]entry)} }

// add records d for its dictionary, replacing whatever came before.
func (s *set) add(d Def) {
	d.Index = nil
	d.Normalize()
	raw, err := Encode(d)
	if err != nil {
		log.Warnf("merge: dropping record for %q: %v", d.Word, err)
		return
	}
	sum := xxhash.Sum64(raw)
	if cur, ok := s.items[d.DictName]; ok && cur.sum == sum && bytes.Equal(cur.raw, raw) {
		return
	}
	s.items[d.DictName] = entry{sum: sum, raw: raw, def: d}
}

func (s *set) addRaw(b []byte) {
	w, err := DecodeWrapper(b)
	if err != nil {
		log.Warnf("merge: skipping undecodable value: %v", err)
		return
	}
	for _, d := range w.Items {
		s.add(d)
	}
}

func (s *set) wrap(word string) Wrapper {
	items := make([]Def, 0, len(s.items))
	for _, e := range s.items {
		items = append(items, e.def)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DictName < items[j].DictName })
	if word == "" && len(items) > 0 {
		word = items[0].Word
	}
	return Wrapper{Wrapper: true, Word: word, Items: items}
}

// Merge folds the stored value of a key and a batch of newly written values
// into one wrapper. existing may be nil. Merge never fails: values that do
// not decode are logged and skipped.
//
// Operands apply in write order on top of existing: a later record for a
// dictionary replaces an earlier one, records for different dictionaries
// accumulate. Grouping does not matter, so folding operands in several
// passes gives the same value as folding them at once, and merging a value
// that is already part of the result changes nothing.
func Merge(word string, existing []byte, operands [][]byte) []byte {
	s := newSet()
	if existing != nil {
		s.addRaw(existing)
	}
	for _, op := range operands {
		s.addRaw(op)
	}
	out, err := EncodeWrapper(s.wrap(word))
	if err != nil {
		// Every item already round-tripped through Encode.
		panic(err)
	}
	return out
}

// MergeWrappers is Merge on already decoded values, in order.
func MergeWrappers(word string, ws ...Wrapper) Wrapper {
	s := newSet()
	for _, w := range ws {
		for _, d := range w.Items {
			s.add(d)
		}
	}
	return s.wrap(word)
}
