package fuzzytrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomatonDistance(t *testing.T) {
	b, err := NewBuilder(2, false)
	require.NoError(t, err)
	a, err := b.Build("kitten")
	require.NoError(t, err)

	testCases := []struct {
		input string
		dist  uint8
		ok    bool
	}{
		{"kitten", 0, true},
		{"sitten", 1, true},
		{"sittin", 2, true},
		{"sitting", 0, false},
		{"kit", 0, false},
		{"", 0, false},
	}
	for _, tc := range testCases {
		d, ok := a.Distance(a.StepString(a.Start(), tc.input))
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.dist, d, tc.input)
	}
}

func TestPrefixAutomatonKeepsBest(t *testing.T) {
	b, err := NewBuilder(1, false)
	require.NoError(t, err)
	a, err := b.BuildPrefix("cat")
	require.NoError(t, err)

	s := a.StepString(a.Start(), "cat")
	d, ok := a.Distance(s)
	require.True(t, ok)
	assert.Equal(t, uint8(0), d)

	// once a prefix matched, anything may follow
	s = a.StepString(s, "alogue of things")
	assert.NotEqual(t, SinkState, s)
	d, ok = a.Distance(s)
	require.True(t, ok)
	assert.Equal(t, uint8(0), d)

	assert.True(t, a.Prefix())
}

func TestAutomatonSink(t *testing.T) {
	b, err := NewBuilder(1, true)
	require.NoError(t, err)
	a, err := b.Build("ab")
	require.NoError(t, err)

	assert.Equal(t, SinkState, a.StepString(a.Start(), "xyz"))
	assert.Equal(t, SinkState, a.Step(SinkState, 'a'))
	_, ok := a.Distance(SinkState)
	assert.False(t, ok)
}

func TestAutomatonStatesAreShared(t *testing.T) {
	b, err := NewBuilder(1, false)
	require.NoError(t, err)
	a, err := b.Build("abc")
	require.NoError(t, err)

	// characters outside the query collapse to one symbol
	x := a.Step(a.Start(), 'x')
	y := a.Step(a.Start(), 'y')
	assert.Equal(t, x, y)

	before := a.States()
	a.StepString(a.Start(), "abc")
	a.StepString(a.Start(), "abc")
	after := a.States()
	a.StepString(a.Start(), "abc")
	assert.Equal(t, after, a.States())
	assert.GreaterOrEqual(t, after, before)
}

func TestBuilderLimits(t *testing.T) {
	_, err := NewBuilder(MaxDistance+1, false)
	assert.ErrorIs(t, err, ErrDistanceTooLarge)

	b, err := NewBuilder(MaxDistance, true)
	require.NoError(t, err)
	assert.Equal(t, uint8(MaxDistance), b.Distance())

	q := make([]rune, MaxQueryLen)
	for i := range q {
		q[i] = rune('a' + i%26)
	}
	_, err = b.Build(string(q))
	assert.NoError(t, err)
	_, err = b.BuildPrefix(string(q) + "z")
	assert.ErrorIs(t, err, ErrQueryTooLong)
}
