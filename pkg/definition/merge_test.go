package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, d Def) []byte {
	t.Helper()
	b, err := Encode(d)
	require.NoError(t, err)
	return b
}

func mustWrap(t *testing.T, b []byte) Wrapper {
	t.Helper()
	w, err := DecodeWrapper(b)
	require.NoError(t, err)
	return w
}

var (
	d1 = Def{Word: "run", DictName: "dictA", CN: "跑", Pronunciation: []string{"rʌn"}}
	d2 = Def{Word: "run", DictName: "dictB", EN: "to move fast", Examples: []Example{{EN: "run home"}}}
	d3 = Def{Word: "run", DictName: "dictC", Definitions: []Def{{EN: "a trip"}}}
	// a second version of dictB
	d2b = Def{Word: "run", DictName: "dictB", EN: "to move quickly"}
)

func TestMergeAddsDictionaries(t *testing.T) {
	existing := Merge("run", nil, [][]byte{mustEncode(t, d1)})
	merged := Merge("run", existing, [][]byte{mustEncode(t, d2)})

	w := mustWrap(t, merged)
	assert.True(t, w.Wrapper)
	assert.Equal(t, "run", w.Word)
	assert.Equal(t, []string{"dictA", "dictB"}, w.Dicts())
	got, ok := w.Get("dictB")
	require.True(t, ok)
	assert.Equal(t, d2, got)

	again := Merge("run", merged, [][]byte{mustEncode(t, d2)})
	assert.Equal(t, merged, again)
}

func TestMergeIsIdempotent(t *testing.T) {
	all := Merge("run", nil, [][]byte{mustEncode(t, d1), mustEncode(t, d2), mustEncode(t, d3)})
	assert.Equal(t, all, Merge("run", all, [][]byte{all}))
	assert.Equal(t, all, Merge("run", all, nil))
	assert.Equal(t, all, Merge("run", nil, [][]byte{all, all}))
}

func TestMergeIsOrderIndependent(t *testing.T) {
	a := Merge("run", nil, [][]byte{mustEncode(t, d1)})
	b := mustEncode(t, d2)
	c := mustEncode(t, d3)

	want := Merge("run", a, [][]byte{b, c})
	assert.Equal(t, want, Merge("run", a, [][]byte{c, b}))

	// grouping
	assert.Equal(t, want, Merge("run", Merge("run", a, [][]byte{b}), [][]byte{c}))
	assert.Equal(t, want, Merge("run", Merge("run", a, [][]byte{c}), [][]byte{b}))
	assert.Equal(t, want, Merge("run", nil, [][]byte{c, a, Merge("run", nil, [][]byte{b})}))

	w := mustWrap(t, want)
	assert.Equal(t, []string{"dictA", "dictB", "dictC"}, w.Dicts())
}

func TestMergeKeepsOneRecordPerDictionary(t *testing.T) {
	merged := Merge("run", nil, [][]byte{mustEncode(t, d2), mustEncode(t, d2b)})
	w := mustWrap(t, merged)
	require.Len(t, w.Items, 1)
	assert.Equal(t, d2b, w.Items[0])
}

func TestMergeLaterWriteWins(t *testing.T) {
	b, b2, c := mustEncode(t, d2), mustEncode(t, d2b), mustEncode(t, d3)

	testCases := []struct {
		name     string
		existing []byte
		operands [][]byte
		expected Def
	}{
		{"newer operand", nil, [][]byte{b, b2}, d2b},
		{"older encoding written last", nil, [][]byte{b2, b}, d2},
		{"operand over existing", Merge("run", nil, [][]byte{b2}), [][]byte{b}, d2},
		{"operand over existing reversed", Merge("run", nil, [][]byte{b}), [][]byte{b2}, d2b},
		{"other dicts in between", nil, [][]byte{b, c, b2}, d2b},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := mustWrap(t, Merge("run", tc.existing, tc.operands))
			got, ok := w.Get("dictB")
			require.True(t, ok)
			assert.Equal(t, tc.expected, got)
		})
	}

	// grouping along the write order
	all := Merge("run", nil, [][]byte{b, c, b2})
	assert.Equal(t, all, Merge("run", Merge("run", nil, [][]byte{b}), [][]byte{c, b2}))
	assert.Equal(t, all, Merge("run", Merge("run", nil, [][]byte{b, c}), [][]byte{b2}))
	assert.Equal(t, all, Merge("run", nil, [][]byte{Merge("run", nil, [][]byte{b, c}), b2}))
}

func TestMergeStripsIndex(t *testing.T) {
	i, j := uint32(3), uint32(9)
	a := d1
	a.Index = &i
	b := d1
	b.Index = &j

	merged := Merge("run", nil, [][]byte{mustEncode(t, a), mustEncode(t, b)})
	w := mustWrap(t, merged)
	require.Len(t, w.Items, 1)
	assert.Nil(t, w.Items[0].Index)
	assert.Equal(t, Merge("run", nil, [][]byte{mustEncode(t, d1)}), merged)
}

func TestMergeLegacyExisting(t *testing.T) {
	legacy := mustEncode(t, d1)
	merged := Merge("run", legacy, [][]byte{mustEncode(t, d2)})
	assert.Equal(t, []string{"dictA", "dictB"}, mustWrap(t, merged).Dicts())
}

func TestMergeSkipsGarbage(t *testing.T) {
	merged := Merge("run", []byte{0xc1}, [][]byte{{0xc1, 0xff}, mustEncode(t, d1)})
	assert.Equal(t, []string{"dictA"}, mustWrap(t, merged).Dicts())

	empty := mustWrap(t, Merge("run", nil, nil))
	assert.Empty(t, empty.Items)
	assert.Equal(t, "run", empty.Word)
}

func TestNormalizeFoldsGroups(t *testing.T) {
	d := Def{
		Definitions: []Def{{EN: "first"}},
		Groups:      []Def{{EN: "second", Groups: []Def{{EN: "nested"}}}},
	}
	d.Normalize()
	assert.Nil(t, d.Groups)
	require.Len(t, d.Definitions, 2)
	assert.Equal(t, []Def{{EN: "nested"}}, d.Definitions[1].Definitions)

	// grouped and flat spellings of one record dedupe together
	flat := Def{DictName: "x", Definitions: []Def{{EN: "a"}}}
	grouped := Def{DictName: "x", Groups: []Def{{EN: "a"}}}
	w := MergeWrappers("w", Wrapper{Items: []Def{flat}}, Wrapper{Items: []Def{grouped}})
	assert.Len(t, w.Items, 1)
}

func TestDecodeWrapperOfBareRecord(t *testing.T) {
	w := mustWrap(t, mustEncode(t, d2))
	assert.Equal(t, "run", w.Word)
	assert.Equal(t, []Def{d2}, w.Items)

	wrapped, err := IsWrapper(mustEncode(t, d2))
	require.NoError(t, err)
	assert.False(t, wrapped)

	_, ok := w.Get("dictZ")
	assert.False(t, ok)
}
