package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/dict"
	"gopkg.in/yaml.v3"
)

// dictNameFor names a dictionary after its source file.
func dictNameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readEntriesFile(path, dictName string) ([]dict.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := readEntries(f, dictName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entries, nil
}

// readEntries decodes YAML documents, each a list of definitions, and keys
// every definition by its word.
func readEntries(r io.Reader, dictName string) ([]dict.Entry, error) {
	dec := yaml.NewDecoder(r)
	var entries []dict.Entry
	for {
		var defs []definition.Def
		err := dec.Decode(&defs)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			entries = append(entries, dict.Entry{Headword: d.Word, Dict: dictName, Def: d})
		}
	}
}
