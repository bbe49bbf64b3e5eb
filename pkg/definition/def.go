// Package definition holds the dictionary record model and the merge
// operator the store runs whenever several records land on one key.
package definition

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Example is a usage sample with an optional translation.
type Example struct {
	EN string `msgpack:"EN,omitempty" yaml:"EN,omitempty" json:"EN,omitempty"`
	CN string `msgpack:"CN,omitempty" yaml:"CN,omitempty" json:"CN,omitempty"`
}

// Def is one dictionary's entry for a headword. Nested definitions carry
// senses and sub-senses.
type Def struct {
	Word          string    `msgpack:"word,omitempty" yaml:"word,omitempty" json:"word,omitempty"`
	DictName      string    `msgpack:"dictName,omitempty" yaml:"dictName,omitempty" json:"dictName,omitempty"`
	Title         string    `msgpack:"title,omitempty" yaml:"title,omitempty" json:"title,omitempty"`
	Type          string    `msgpack:"type,omitempty" yaml:"type,omitempty" json:"type,omitempty"`
	Info          string    `msgpack:"info,omitempty" yaml:"info,omitempty" json:"info,omitempty"`
	Pronunciation []string  `msgpack:"pronunciation,omitempty" yaml:"pronunciation,omitempty" json:"pronunciation,omitempty"`
	EN            string    `msgpack:"EN,omitempty" yaml:"EN,omitempty" json:"EN,omitempty"`
	CN            string    `msgpack:"CN,omitempty" yaml:"CN,omitempty" json:"CN,omitempty"`
	T1            string    `msgpack:"t1,omitempty" yaml:"t1,omitempty" json:"t1,omitempty"`
	T2            string    `msgpack:"t2,omitempty" yaml:"t2,omitempty" json:"t2,omitempty"`
	Etymology     []string  `msgpack:"etymology,omitempty" yaml:"etymology,omitempty" json:"etymology,omitempty"`
	Examples      []Example `msgpack:"examples,omitempty" yaml:"examples,omitempty" json:"examples,omitempty"`
	Tip           []Example `msgpack:"tip,omitempty" yaml:"tip,omitempty" json:"tip,omitempty"`
	Related       []string  `msgpack:"related,omitempty" yaml:"related,omitempty" json:"related,omitempty"`
	Definitions   []Def     `msgpack:"definitions,omitempty" yaml:"definitions,omitempty" json:"definitions,omitempty"`
	Groups        []Def     `msgpack:"groups,omitempty" yaml:"groups,omitempty" json:"groups,omitempty"`

	// Index is the position a record had in its source file. It only matters
	// during import and is stripped before storage.
	Index *uint32 `msgpack:"index,omitempty" yaml:"index,omitempty" json:"index,omitempty"`
}

// Normalize folds groups into definitions, recursively. Some sources use the
// two names for the same thing.
func (d *Def) Normalize() {
	if len(d.Definitions)+len(d.Groups) == 0 {
		d.Groups = nil
		return
	}
	defs := make([]Def, 0, len(d.Definitions)+len(d.Groups))
	defs = append(defs, d.Definitions...)
	defs = append(defs, d.Groups...)
	for i := range defs {
		defs[i].Normalize()
	}
	d.Definitions, d.Groups = defs, nil
}

// Encode returns the msgpack form of d. Struct fields encode in declaration
// order, so equal records always give equal bytes.
func Encode(d Def) ([]byte, error) {
	b, err := msgpack.Marshal(&d)
	if err != nil {
		return nil, fmt.Errorf("encode definition %q: %w", d.Word, err)
	}
	return b, nil
}

// Decode parses a single record.
func Decode(b []byte) (Def, error) {
	var d Def
	if err := msgpack.Unmarshal(b, &d); err != nil {
		return Def{}, fmt.Errorf("decode definition: %w", err)
	}
	return d, nil
}
