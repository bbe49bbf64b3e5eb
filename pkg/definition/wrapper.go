package definition

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Wrapper is the stored value of a headword: one Def per dictionary, sorted
// by dictionary name.
type Wrapper struct {
	Wrapper bool   `msgpack:"_wrapper" json:"-"`
	Word    string `msgpack:"word,omitempty" json:"word"`
	Items   []Def  `msgpack:"items" json:"items"`
}

type probe struct {
	Wrapper bool `msgpack:"_wrapper"`
}

// Get returns the entry contributed by dict.
func (w Wrapper) Get(dict string) (Def, bool) {
	i := sort.Search(len(w.Items), func(i int) bool { return w.Items[i].DictName >= dict })
	if i < len(w.Items) && w.Items[i].DictName == dict {
		return w.Items[i], true
	}
	return Def{}, false
}

// Dicts lists the contributing dictionary names.
func (w Wrapper) Dicts() []string {
	out := make([]string, len(w.Items))
	for i, d := range w.Items {
		out[i] = d.DictName
	}
	return out
}

// EncodeWrapper marks w as a wrapper and encodes it.
func EncodeWrapper(w Wrapper) ([]byte, error) {
	w.Wrapper = true
	b, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("encode wrapper %q: %w", w.Word, err)
	}
	return b, nil
}

// IsWrapper reports whether b holds a wrapper rather than a bare record.
func IsWrapper(b []byte) (bool, error) {
	var p probe
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return false, fmt.Errorf("decode stored value: %w", err)
	}
	return p.Wrapper, nil
}

// DecodeWrapper reads a stored value. A bare legacy record comes back as a
// wrapper holding just that record.
func DecodeWrapper(b []byte) (Wrapper, error) {
	wrapped, err := IsWrapper(b)
	if err != nil {
		return Wrapper{}, err
	}
	if !wrapped {
		d, err := Decode(b)
		if err != nil {
			return Wrapper{}, err
		}
		d.Index = nil
		return Wrapper{Wrapper: true, Word: d.Word, Items: []Def{d}}, nil
	}
	var w Wrapper
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return Wrapper{}, fmt.Errorf("decode wrapper: %w", err)
	}
	return w, nil
}
