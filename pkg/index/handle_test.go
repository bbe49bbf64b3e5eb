package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHandleWithoutIndex(t *testing.T) {
	h := NewHandle(8)
	assert.False(t, h.Loaded())
	assert.Equal(t, Backend(""), h.Backend())
	assert.Zero(t, h.Count())

	_, err := h.Query("apple", Params{})
	assert.ErrorIs(t, err, ErrIndexUnavailable)

	err = h.Open(BackendFST, t.TempDir(), DefaultOptions())
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.False(t, h.Loaded())
	require.NoError(t, h.Close())
}

func TestHandleCachesQueries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Build(BackendFST, vocabulary, dir, DefaultOptions()))

	h := NewHandle(8)
	require.NoError(t, h.Open(BackendFST, dir, DefaultOptions()))
	defer h.Close()

	first, err := h.Query("appl", Params{})
	require.NoError(t, err)
	second, err := h.Query("appl", Params{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := h.CacheStats()
	assert.Equal(t, 1, stats["cacheHits"])
	assert.Equal(t, 1, stats["cacheMisses"])

	// results handed out are copies
	second[0] = "mutated"
	third, err := h.Query("appl", Params{})
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestHandleSwapUnderLoad(t *testing.T) {
	dirs := make([]string, 2)
	for i := range dirs {
		dirs[i] = t.TempDir()
		words := []string{"alpha", "beta", fmt.Sprintf("gamma%d", i)}
		require.NoError(t, Build(BackendFST, words, dirs[i], DefaultOptions()))
		require.NoError(t, Build(BackendTopK, words, dirs[i], DefaultOptions()))
	}

	h := NewHandle(4)
	require.NoError(t, h.Open(BackendFST, dirs[0], DefaultOptions()))
	defer h.Close()

	var g errgroup.Group
	for r := 0; r < 8; r++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				got, err := h.Query("gam", Params{Num: 2})
				if err != nil {
					return err
				}
				if len(got) != 1 {
					return fmt.Errorf("got %v", got)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < 20; i++ {
			b := Backends[i%len(Backends)]
			if err := h.Open(b, dirs[i%2], DefaultOptions()); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
	assert.Equal(t, 3, h.Count())
}

func TestQueryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2)
	c.Put("a", Params{}, []string{"a"})
	c.Put("b", Params{}, []string{"b"})
	_, ok := c.Get("a", Params{})
	require.True(t, ok)

	c.Put("c", Params{}, []string{"c"})
	_, ok = c.Get("b", Params{})
	assert.False(t, ok)
	_, ok = c.Get("a", Params{})
	assert.True(t, ok)
	_, ok = c.Get("c", Params{})
	assert.True(t, ok)

	// parameters are part of the key
	_, ok = c.Get("a", Params{Expensive: true})
	assert.False(t, ok)

	c.Purge()
	_, ok = c.Get("a", Params{})
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats()["cacheEntries"])

	off := NewQueryCache(0)
	off.Put("a", Params{}, []string{"a"})
	_, ok = off.Get("a", Params{})
	assert.False(t, ok)
}
