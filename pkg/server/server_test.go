package server

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/dict"
	"github.com/bastiangx/offdict/pkg/index"
	"github.com/bastiangx/offdict/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeDict struct {
	limits    []int
	expensive []bool
	fail      bool
}

func (f *fakeDict) Search(q string, n int, expensive bool) ([]definition.Wrapper, error) {
	f.limits = append(f.limits, n)
	f.expensive = append(f.expensive, expensive)
	switch {
	case q == "":
		return nil, fmt.Errorf("%w: %q", dict.ErrInvalidQuery, q)
	case f.fail:
		return nil, errors.New("disk on fire")
	}
	return []definition.Wrapper{{
		Wrapper: true,
		Word:    q,
		Items:   []definition.Def{{Word: q, DictName: "wn", Title: "t"}},
	}}, nil
}

func (f *fakeDict) Stats() (dict.Stats, error) {
	return dict.Stats{
		Store:   store.Stats{Records: 7, Pending: 2},
		Words:   5,
		Backend: index.BackendFST,
		Indexed: 5,
	}, nil
}

func encode(t *testing.T, reqs ...any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}
	return &buf
}

func run(t *testing.T, d Dictionary, in *bytes.Buffer) (*msgpack.Decoder, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewServer(d, Options{In: in, Out: &out, DefaultLimit: 3, MaxLimit: 10}).Start()

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	return dec, err
}

func TestLookup(t *testing.T) {
	d := &fakeDict{}
	dec, err := run(t, d, encode(t,
		LookupRequest{ID: "1", Query: "apple", Limit: 5},
		LookupRequest{ID: "2", Query: "pear", Expensive: true},
	))
	require.NoError(t, err)

	var resp LookupResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Words, 1)
	assert.Equal(t, "apple", resp.Words[0].Word)
	assert.Equal(t, "wn", resp.Words[0].Items[0].DictName)

	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "2", resp.ID)
	assert.Equal(t, "pear", resp.Words[0].Word)

	assert.Equal(t, []int{5, 3}, d.limits)
	assert.Equal(t, []bool{false, true}, d.expensive)
}

func TestLimitIsClamped(t *testing.T) {
	d := &fakeDict{}
	_, err := run(t, d, encode(t, LookupRequest{ID: "1", Query: "a", Limit: 1000}))
	require.NoError(t, err)
	assert.Equal(t, []int{10}, d.limits)
}

func TestErrors(t *testing.T) {
	d := &fakeDict{}
	dec, err := run(t, d, encode(t,
		LookupRequest{ID: "1"},
		LookupRequest{ID: "2", Action: "reload"},
		LookupRequest{ID: "3", Query: "ok"},
	))
	require.NoError(t, err)

	var e LookupError
	require.NoError(t, dec.Decode(&e))
	assert.Equal(t, "1", e.ID)
	assert.Equal(t, CodeBadRequest, e.Code)
	assert.Contains(t, e.Error, "invalid query")

	require.NoError(t, dec.Decode(&e))
	assert.Equal(t, "2", e.ID)
	assert.Equal(t, CodeBadRequest, e.Code)

	// the server keeps going after a rejected request
	var resp LookupResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "3", resp.ID)
}

func TestInternalError(t *testing.T) {
	dec, err := run(t, &fakeDict{fail: true}, encode(t, LookupRequest{ID: "9", Query: "x"}))
	require.NoError(t, err)

	var e LookupError
	require.NoError(t, dec.Decode(&e))
	assert.Equal(t, CodeInternal, e.Code)
	assert.NotContains(t, e.Error, "fire")
}

func TestStats(t *testing.T) {
	dec, err := run(t, &fakeDict{}, encode(t, LookupRequest{ID: "s", Action: "stats"}))
	require.NoError(t, err)

	var st StatsResponse
	require.NoError(t, dec.Decode(&st))
	assert.Equal(t, StatsResponse{ID: "s", Words: 5, Records: 7, Pending: 2, Backend: "fst", Indexed: 5}, st)
}

func TestMalformedRequest(t *testing.T) {
	in := bytes.NewBuffer([]byte{0xc1})
	dec, err := run(t, &fakeDict{}, in)
	require.Error(t, err)

	var e LookupError
	require.NoError(t, dec.Decode(&e))
	assert.Equal(t, CodeBadRequest, e.Code)
}
