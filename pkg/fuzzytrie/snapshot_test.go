package fuzzytrie

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trie.bin")
	cfg := Config{
		Default:   LevenshteinConfig{Distance: 2},
		Overrides: []Override{{LevenshteinConfig: LevenshteinConfig{Distance: 1, Transposition: true}, MaxLen: 4}},
	}
	trie := sometimesTrie(t, cfg)
	require.NoError(t, trie.Save(path))

	loaded, err := Load[int](path)
	require.NoError(t, err)
	assert.Equal(t, trie.Config(), loaded.Config())
	assert.Equal(t, trie.Len(), loaded.Len())
	assert.Equal(t, trie.Nodes(), loaded.Nodes())

	for _, q := range []string{"s0me", "s0meth", "somatime", "sometmie"} {
		assert.Equal(t, prefixValues(t, trie, q), prefixValues(t, loaded, q), q)
	}

	// inserts after a reload keep interning against the restored table
	loaded.Insert("sometime").InsertValue(6)
	assert.Equal(t, trie.Len(), loaded.Len())
}

func TestLoadOrNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bin")
	trie, err := LoadOrNew[string](path, Config{Default: LevenshteinConfig{Distance: 1}})
	require.NoError(t, err)
	assert.Zero(t, trie.Len())
	assert.Equal(t, uint8(1), trie.Config().Default.Distance)

	_, err = Load[string](path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeSnapshot(t *testing.T, snap snapshot[string]) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trie.bin")
	b, err := msgpack.Marshal(&snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestLoadRejectsCorruptSnapshots(t *testing.T) {
	valid := func() snapshot[string] {
		root := newBranch(0)
		a := root.child('a')
		a.Children = append(a.Children, newTerminal(0))
		return snapshot[string]{
			Version: snapshotVersion,
			Config:  Config{Default: LevenshteinConfig{Distance: 1}},
			Root:    root,
			Values:  []string{"a"},
		}
	}

	path := writeSnapshot(t, valid())
	_, err := Load[string](path)
	require.NoError(t, err)

	testCases := map[string]func(*snapshot[string]){
		"dangling index": func(s *snapshot[string]) { s.Values = nil },
		"duplicate value": func(s *snapshot[string]) {
			s.Values = []string{"a", "a"}
		},
		"terminal root":  func(s *snapshot[string]) { s.Root.Terminal = true },
		"future version": func(s *snapshot[string]) { s.Version = snapshotVersion + 1 },
		"huge distance": func(s *snapshot[string]) {
			s.Config.Default.Distance = MaxDistance + 1
		},
	}
	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			snap := valid()
			mutate(&snap)
			_, err := Load[string](writeSnapshot(t, snap))
			assert.Error(t, err)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trie.bin")
		require.NoError(t, os.WriteFile(path, []byte{0xc1, 0x00, 0x01}, 0o644))
		_, err := Load[string](path)
		assert.Error(t, err)
	})
}
