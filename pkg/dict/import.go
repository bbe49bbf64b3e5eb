package dict

import (
	"time"

	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/store"
)

// importBatch is the number of records written per transaction.
const importBatch = 1000

// Entry is one imported record: a dictionary's definition of a headword.
type Entry struct {
	Headword string
	Dict     string
	Def      definition.Def
}

// ImportStats reports what an import did.
type ImportStats struct {
	Records  int `json:"records"`
	NewWords int `json:"new_words"`
	Skipped  int `json:"skipped"`
}

// Import stores entries and adds their headwords to the trie, then saves the
// trie snapshot. Entries without a headword or dictionary name are skipped.
// Importing the same entries again changes nothing.
func (d *Dictionary) Import(entries []Entry) (ImportStats, error) {
	start := time.Now()
	var stats ImportStats

	for lo := 0; lo < len(entries); lo += importBatch {
		chunk := entries[lo:min(lo+importBatch, len(entries))]
		var accepted []string
		err := d.store.Write(func(b *store.Batch) error {
			for _, e := range chunk {
				key, raw, ok := d.encode(e)
				if !ok {
					stats.Skipped++
					continue
				}
				if d.opts.Layout == LayoutSplit {
					b.Put(key, raw)
				} else {
					b.Merge(key, raw)
				}
				accepted = append(accepted, e.Headword)
			}
			return nil
		})
		if err != nil {
			return stats, err
		}
		stats.Records += len(accepted)

		d.mu.Lock()
		before := d.trie.Len()
		for _, w := range accepted {
			d.trie.Insert(w).InsertUnique(w)
		}
		stats.NewWords += d.trie.Len() - before
		d.mu.Unlock()
	}

	if err := d.SaveTrie(); err != nil {
		return stats, err
	}
	d.log.Info("import done", "records", stats.Records, "new", stats.NewWords, "skipped", stats.Skipped, "took", time.Since(start))
	return stats, nil
}

// encode prepares the key and stored bytes of e. The definition inherits
// the headword and dictionary name when it lacks them.
func (d *Dictionary) encode(e Entry) ([]byte, []byte, bool) {
	def := e.Def
	if def.DictName == "" {
		def.DictName = e.Dict
	}
	if e.Headword == "" || def.DictName == "" {
		d.log.Warn("skipping entry without headword or dictionary", "headword", e.Headword, "dict", e.Dict)
		return nil, nil, false
	}
	if def.Word == "" {
		def.Word = e.Headword
	}
	def.Index = nil
	def.Normalize()

	key, err := store.EncodeKey(e.Headword, def.DictName)
	if err != nil {
		d.log.Warn("skipping entry", "headword", e.Headword, "err", err)
		return nil, nil, false
	}
	raw, err := definition.Encode(def)
	if err != nil {
		d.log.Warn("skipping entry", "headword", e.Headword, "err", err)
		return nil, nil, false
	}
	return key, raw, true
}
