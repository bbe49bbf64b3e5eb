// Package store is the key/value layer under the dictionary. It keeps
// records in bbolt and emulates a merge operator: Merge appends an operand,
// reads fold the operands into the base value, and Compact persists the
// folded result.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketRecords = []byte("records")
	bucketPending = []byte("pending")
	bucketMeta    = []byte("meta")
	keyOperator   = []byte("merge_operator")
)

var ErrNoMergeOperator = errors.New("store: no merge operator registered")

// MergeFunc combines the stored value of key (nil when absent) with pending
// operands. It must be associative and must not depend on operand order,
// since it runs on reads and again during compaction with arbitrary batches.
type MergeFunc func(key, existing []byte, operands [][]byte) []byte

// Store is a bbolt database with merge support.
type Store struct {
	db *bolt.DB

	mu     sync.RWMutex
	opName string
	merge  MergeFunc
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketPending, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.db.Path() }

// RegisterMergeOperator installs fn as the merge operator. Operands written
// under a differently named operator are still folded with fn, so renaming
// an operator must keep it compatible.
func (s *Store) RegisterMergeOperator(name string, fn MergeFunc) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if prev := meta.Get(keyOperator); prev != nil && string(prev) != name {
			log.Warnf("merge operator changed from %q to %q", prev, name)
		}
		return meta.Put(keyOperator, []byte(name))
	})
	if err != nil {
		return fmt.Errorf("register merge operator %q: %w", name, err)
	}
	s.mu.Lock()
	s.opName, s.merge = name, fn
	s.mu.Unlock()
	return nil
}

func (s *Store) operator() MergeFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merge
}

func clone(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// Get returns the value of key with pending operands folded in, or nil when
// the key is absent.
func (s *Store) Get(key []byte) ([]byte, error) {
	var base []byte
	var ops [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		base = clone(tx.Bucket(bucketRecords).Get(key))
		ops = pendingFor(tx.Bucket(bucketPending), key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.fold(key, base, ops)
}

func (s *Store) fold(key, base []byte, ops [][]byte) ([]byte, error) {
	if len(ops) == 0 {
		return base, nil
	}
	fn := s.operator()
	if fn == nil {
		return nil, ErrNoMergeOperator
	}
	return fn(key, base, ops), nil
}

func seek(c *bolt.Cursor, prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.First()
	}
	return c.Seek(prefix)
}

func pendingFor(b *bolt.Bucket, key []byte) [][]byte {
	var ops [][]byte
	c := b.Cursor()
	for k, v := c.Seek(key); k != nil && bytes.HasPrefix(k, key); k, v = c.Next() {
		if len(k) == len(key)+seqSize {
			ops = append(ops, clone(v))
		}
	}
	return ops
}

// Put overwrites key, dropping any pending operands.
func (s *Store) Put(key, value []byte) error {
	return s.Write(func(b *Batch) error {
		b.Put(key, value)
		return nil
	})
}

// Merge records value as an operand for key.
func (s *Store) Merge(key, value []byte) error {
	return s.Write(func(b *Batch) error {
		b.Merge(key, value)
		return nil
	})
}

// Delete removes key and its pending operands.
func (s *Store) Delete(key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := dropPending(tx.Bucket(bucketPending), key); err != nil {
			return err
		}
		return tx.Bucket(bucketRecords).Delete(key)
	})
}

func dropPending(b *bolt.Bucket, key []byte) error {
	var stale [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(key); k != nil && bytes.HasPrefix(k, key); k, _ = c.Next() {
		if len(k) == len(key)+seqSize {
			stale = append(stale, clone(k))
		}
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// KV is a key and its folded value.
type KV struct {
	Key   []byte
	Value []byte
}

// PrefixScan calls fn for every key starting with prefix, in key order, with
// pending operands folded in. fn runs outside the read transaction; an error
// from it stops the scan and is returned.
func (s *Store) PrefixScan(prefix []byte, fn func(key, value []byte) error) error {
	kvs, err := s.scan(prefix)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		if err := fn(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

type pendingGroup struct {
	base []byte
	ops  [][]byte
}

func (s *Store) scan(prefix []byte) ([]KV, error) {
	groups := map[string]*pendingGroup{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		for k, v := seek(c, prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			groups[string(k)] = &pendingGroup{base: clone(v)}
		}
		c = tx.Bucket(bucketPending).Cursor()
		for k, v := seek(c, prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if len(k) < len(prefix)+seqSize {
				continue
			}
			key := string(baseOf(k))
			g := groups[key]
			if g == nil {
				g = &pendingGroup{}
				groups[key] = g
			}
			g.ops = append(g.ops, clone(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	kvs := make([]KV, 0, len(groups))
	for k, g := range groups {
		v, err := s.fold([]byte(k), g.base, g.ops)
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, KV{Key: []byte(k), Value: v})
	}
	sort.Slice(kvs, func(i, j int) bool { return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0 })
	return kvs, nil
}
