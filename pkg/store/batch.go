package store

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

type opKind uint8

const (
	opPut opKind = iota
	opMerge
)

type op struct {
	kind  opKind
	key   []byte
	value []byte
}

// Batch collects writes applied in one transaction by Write.
type Batch struct {
	ops []op
}

// Put queues an overwrite of key.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, op{opPut, clone(key), clone(value)})
}

// Merge queues a merge operand for key.
func (b *Batch) Merge(key, value []byte) {
	b.ops = append(b.ops, op{opMerge, clone(key), clone(value)})
}

// Len returns the number of queued writes.
func (b *Batch) Len() int { return len(b.ops) }

// Write fills a batch through fn and commits it atomically. Nothing is
// written when fn fails.
func (s *Store) Write(fn func(b *Batch) error) error {
	var b Batch
	if err := fn(&b); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}
	for _, o := range b.ops {
		if o.kind == opMerge && s.operator() == nil {
			return ErrNoMergeOperator
		}
		if len(o.key)+seqSize > maxKeySize {
			return fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(o.key))
		}
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		records, pending := tx.Bucket(bucketRecords), tx.Bucket(bucketPending)
		for _, o := range b.ops {
			switch o.kind {
			case opPut:
				if err := dropPending(pending, o.key); err != nil {
					return err
				}
				if err := records.Put(o.key, o.value); err != nil {
					return err
				}
			case opMerge:
				seq, err := pending.NextSequence()
				if err != nil {
					return err
				}
				if err := pending.Put(pendingKey(o.key, seq), o.value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
