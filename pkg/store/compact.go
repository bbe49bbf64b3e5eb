package store

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	bolt "go.etcd.io/bbolt"
)

// DefaultCompactBatch is the number of keys folded per transaction.
const DefaultCompactBatch = 512

// Compact folds pending operands into their base values, batchSize keys per
// transaction, and returns how many keys were rewritten. Reads see the same
// values before and after.
func (s *Store) Compact(batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultCompactBatch
	}
	fn := s.operator()
	if fn == nil {
		return 0, ErrNoMergeOperator
	}

	var keys [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPending).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, clone(baseOf(k)))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	keys = dedupKeys(keys)

	done := 0
	for start := 0; start < len(keys); start += batchSize {
		chunk := keys[start:min(start+batchSize, len(keys))]
		err := s.db.Update(func(tx *bolt.Tx) error {
			records, pending := tx.Bucket(bucketRecords), tx.Bucket(bucketPending)
			for _, key := range chunk {
				ops := pendingFor(pending, key)
				if len(ops) == 0 {
					continue
				}
				folded := fn(key, clone(records.Get(key)), ops)
				if err := records.Put(key, folded); err != nil {
					return err
				}
				if err := dropPending(pending, key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return done, fmt.Errorf("compact: %w", err)
		}
		done += len(chunk)
		log.Debugf("compacted %d/%d keys", done, len(keys))
	}
	return done, nil
}

// Operands of different keys interleave in the pending bucket whenever one
// key is a prefix of another.
func dedupKeys(keys [][]byte) [][]byte {
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	out := keys[:0]
	for i, k := range keys {
		if i == 0 || !bytes.Equal(k, keys[i-1]) {
			out = append(out, k)
		}
	}
	return out
}

// Headwords returns every distinct headword in the store, sorted.
func (s *Store) Headwords() ([]string, error) {
	seen := map[string]struct{}{}
	var bad int
	add := func(key []byte) {
		h, _, err := DecodeKey(key)
		if err != nil {
			bad++
			return
		}
		seen[h] = struct{}{}
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			add(k)
		}
		c = tx.Bucket(bucketPending).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			add(baseOf(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if bad > 0 {
		log.Warnf("skipped %d malformed keys", bad)
	}
	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	// keys order by headword length first, not lexically
	sort.Strings(out)
	return out, nil
}

// Stats summarizes the database contents.
type Stats struct {
	Records  int    `json:"records"`
	Pending  int    `json:"pending"`
	Operator string `json:"operator,omitempty"`
}

// Stats counts stored records and pending operands.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		st.Records = tx.Bucket(bucketRecords).Stats().KeyN
		st.Pending = tx.Bucket(bucketPending).Stats().KeyN
		return nil
	})
	s.mu.RLock()
	st.Operator = s.opName
	s.mu.RUnlock()
	return st, err
}
