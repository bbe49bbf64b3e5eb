package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[data]
dir = "/var/lib/offdict"
layout = "split"

[trie]
distance = 1
transposition = false

[[trie.override]]
distance = 0
max_len = 3

[[trie.override]]
distance = 1
transposition = true
max_len = 5

[index]
backend = "topk"
topk_k = 8
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/offdict", cfg.Data.Dir)
	assert.Equal(t, "split", cfg.Data.Layout)
	assert.Equal(t, "trie", cfg.Data.TrieFile)
	assert.Equal(t, 1, cfg.Trie.Distance)
	assert.False(t, cfg.Trie.Transposition)
	assert.Equal(t, []TrieOverride{{Distance: 0, MaxLen: 3}, {Distance: 1, Transposition: true, MaxLen: 5}}, cfg.Trie.Overrides)
	assert.Equal(t, "topk", cfg.Index.Backend)
	assert.Equal(t, 8, cfg.Index.TopK)
	assert.Equal(t, 50, cfg.Index.Cap)
	assert.Equal(t, 3, cfg.Search.Limit)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// a wrongly typed value fails the strict decode
	path := writeConfig(t, `
[trie]
distance = "two"
transposition = false

[search]
limit = 7

[server]
max_limit = 12
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Trie.Distance)
	assert.False(t, cfg.Trie.Transposition)
	assert.Equal(t, 7, cfg.Search.Limit)
	assert.Equal(t, 12, cfg.Server.MaxLimit)
}

func TestLoadConfigGarbage(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "[[[ not toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestInitConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Dir = "/srv/dict"
	dir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/dict", dir)

	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	cfg.Data.Dir = ""
	dir, err = cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "offdict"), dir)
}

func TestGetConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "offdict"), dir)
	assert.DirExists(t, dir)

	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)
}

func TestWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.True(t, writableDir(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// a regular file where a parent directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	assert.False(t, writableDir(filepath.Join(blocker, "offdict")))
}
