package fuzzytrie

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrCorruptSnapshot is returned when a snapshot decodes but violates the
// trie invariants.
var ErrCorruptSnapshot = errors.New("fuzzytrie: corrupt snapshot")

const snapshotVersion = 1

type snapshot[T comparable] struct {
	Version int    `msgpack:"v"`
	Config  Config `msgpack:"cfg"`
	Root    Node   `msgpack:"root"`
	Values  []T    `msgpack:"values"`
}

// Save writes the whole trie to path. The file is replaced atomically.
func (t *Trie[T]) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := msgpack.NewEncoder(w)
	snap := snapshot[T]{
		Version: snapshotVersion,
		Config:  t.config,
		Root:    t.root,
		Values:  t.values.Values(),
	}
	if err := enc.Encode(&snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save. A missing file is reported with an
// error satisfying errors.Is(err, fs.ErrNotExist).
func Load[T comparable](path string) (*Trie[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap snapshot[T]
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorruptSnapshot, snap.Version)
	}
	if snap.Root.Terminal {
		return nil, fmt.Errorf("%w: terminal root", ErrCorruptSnapshot)
	}
	if v, ok := snap.Root.check(len(snap.Values)); !ok {
		return nil, fmt.Errorf("%w: terminal %d outside %d values", ErrCorruptSnapshot, v, len(snap.Values))
	}
	values, err := valueTableFrom(snap.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	t := &Trie[T]{root: snap.Root, values: values}
	if err := t.configure(snap.Config); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadOrNew loads path, or returns an empty trie built from cfg when the
// snapshot does not exist yet.
func LoadOrNew[T comparable](path string, cfg Config) (*Trie[T], error) {
	t, err := Load[T](path)
	if errors.Is(err, os.ErrNotExist) {
		return NewWithConfig[T](cfg)
	}
	return t, err
}
