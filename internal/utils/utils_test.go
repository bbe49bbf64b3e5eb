package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanQuery(t *testing.T) {
	testCases := []struct {
		in   string
		max  int
		want string
		ok   bool
	}{
		{"  hello ", 0, "hello", true},
		{"", 0, "", false},
		{"   ", 0, "", false},
		{"a\x00b", 0, "", false},
		{"жфг", 3, "жфг", true},
		{"жфгд", 3, "", false},
		{"\xff", 0, "", false},
	}
	for _, tc := range testCases {
		got, ok := CleanQuery(tc.in, tc.max)
		assert.Equal(t, tc.ok, ok, "%q", tc.in)
		assert.Equal(t, tc.want, got, "%q", tc.in)
	}
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Dedup([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Dedup(nil))
}

func TestParseTOMLWithRecovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.toml")
	require.NoError(t, SaveTOMLFile(map[string]any{
		"trie": map[string]any{
			"distance": 2,
			"override": []map[string]any{{"distance": 1, "max_len": 4}},
		},
	}, path))

	data, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	trie, ok := ExtractSection(data, "trie")
	require.True(t, ok)
	d, ok := ExtractInt64(trie, "distance")
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	tables, ok := ExtractTables(trie, "override")
	require.True(t, ok)
	require.Len(t, tables, 1)
	l, ok := ExtractInt64(tables[0], "max_len")
	assert.True(t, ok)
	assert.Equal(t, 4, l)

	_, ok = ExtractString(trie, "distance")
	assert.False(t, ok)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	p, err := ExpandHome("~/dict")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/someone", "dict"), p)

	p, err = ExpandHome("/abs/dict")
	require.NoError(t, err)
	assert.Equal(t, "/abs/dict", p)
}

func TestSaveTOMLFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.toml")
	require.NoError(t, SaveTOMLFile(map[string]any{"a": 1}, path))
	require.NoError(t, SaveTOMLFile(map[string]any{"b": 2}, path))
	assert.True(t, FileExists(path))

	data, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	_, ok := data["a"]
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Error(t, SaveTOMLFile(map[string]any{"a": 1}, filepath.Join(dir, "missing", "c.toml")))
}

func TestAbsPath(t *testing.T) {
	assert.Equal(t, "unknown", AbsPath(""))
	assert.Equal(t, "/etc/offdict.toml", AbsPath("/etc/offdict.toml"))
	assert.True(t, filepath.IsAbs(AbsPath("config.toml")))
}
