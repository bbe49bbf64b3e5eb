package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
- word: apple
  title: apple
  type: n.
  pronunciation: ["ˈæp.əl"]
  EN: a round fruit
  examples:
    - EN: an apple a day
  groups:
    - EN: the tree
- word: apply
  EN: to put to use
---
- word: banana
  dictName: tropical
`

func TestReadEntries(t *testing.T) {
	entries, err := readEntries(strings.NewReader(fixture), "wn")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	apple := entries[0]
	assert.Equal(t, "apple", apple.Headword)
	assert.Equal(t, "wn", apple.Dict)
	assert.Equal(t, "n.", apple.Def.Type)
	assert.Equal(t, []string{"ˈæp.əl"}, apple.Def.Pronunciation)
	require.Len(t, apple.Def.Examples, 1)
	assert.Equal(t, "an apple a day", apple.Def.Examples[0].EN)
	require.Len(t, apple.Def.Groups, 1)

	assert.Equal(t, "banana", entries[2].Headword)
	assert.Equal(t, "tropical", entries[2].Def.DictName)
}

func TestReadEntriesRejectsBadYAML(t *testing.T) {
	_, err := readEntries(strings.NewReader("word: [unclosed"), "wn")
	assert.Error(t, err)
}

func TestDictNameFor(t *testing.T) {
	assert.Equal(t, "oxford", dictNameFor("/data/oxford.yaml"))
	assert.Equal(t, "wn.en", dictNameFor("wn.en.yml"))
}
