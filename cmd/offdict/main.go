// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the offdict command line and lookup server.

offdict is an offline dictionary. Definitions from any number of source
dictionaries are imported into an embedded key value store, one record per
(headword, dictionary) pair. Headwords go into a fuzzy trie for
typo-tolerant lookups and into a prebuilt candidate index for fast
search-as-you-type.

# Usage

Import a dictionary from a YAML list of definitions. The dictionary name
defaults to the file name without extension:

	offdict import oxford.yaml
	offdict import --dict wn wordnet.yaml

Build the candidate indexes once the data is in:

	offdict index

Search from the command line, or interactively:

	offdict lookup aple
	offdict lookup -i

Start the msgpack IPC server for editors and other front ends:

	offdict serve

# Configuration

Settings live in a TOML file, created with defaults on first run:

	[data]
	dir = ""
	layout = "merge"

	[trie]
	distance = 2
	transposition = true

	[[trie.override]]
	distance = 1
	max_len = 4

	[index]
	backend = "fst"
	expensive = false

	[search]
	limit = 3

	[server]
	max_limit = 32

An empty data dir resolves to the platform data directory. Pass --config
to use another file, and -d for debug logs on stderr.

# IPC Protocol

The server reads msgpack requests from stdin and writes one response per
request to stdout:

	{"id": "req1", "q": "aple", "n": 5}
	{"id": "req1", "w": [{"word": "apple", "items": [...]}], "c": 1, "t": 412}

See package server for the full message set.
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "offdict"
	gh      = "https://github.com/bastiangx/offdict"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
