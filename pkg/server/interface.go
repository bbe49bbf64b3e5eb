/*
Package server implements msgpack IPC for dictionary lookups.

The server reads a stream of msgpack encoded requests from stdin and writes
one msgpack response per request to stdout. Logs go to stderr so they never
interleave with responses. Requests are handled synchronously in arrival
order, with timing info included in responses.

# IPC

On startup the server writes a status message:

	{"status": "ready"}

Lookup requests carry an ID, the query, an optional result limit and the
expensive flag that widens fuzzy matching:

	{"id": "req_001", "q": "aple", "n": 5, "x": false}

The server responds with the matched headwords, each with the definitions
of every dictionary that has one, best match first. Time is in microseconds:

	{"id": "req_001", "w": [{"word": "apple", "items": [...]}], "c": 1, "t": 412}

Failed requests get an error with an HTTP-like code:

	{"id": "req_001", "e": "invalid query", "c": 400}

A request with action "stats" returns the dictionary counters instead:

	{"id": "stat_001", "action": "stats"}

Limits above the configured maximum are clamped to it.
*/
package server

import "github.com/bastiangx/offdict/pkg/definition"

// LookupRequest is a lookup or, with Action set, a control request.
type LookupRequest struct {
	ID        string `msgpack:"id"`
	Query     string `msgpack:"q"`
	Limit     int    `msgpack:"n,omitempty"`
	Expensive bool   `msgpack:"x,omitempty"`
	Action    string `msgpack:"action,omitempty"` // "" or "lookup", "stats"
}

// Entry is one matched headword.
type Entry struct {
	Word  string           `msgpack:"word"`
	Items []definition.Def `msgpack:"items"`
}

// LookupResponse answers a lookup.
type LookupResponse struct {
	ID        string  `msgpack:"id"`
	Words     []Entry `msgpack:"w"`
	Count     int     `msgpack:"c"`
	TimeTaken int64   `msgpack:"t"`
}

// StatsResponse answers a stats request.
type StatsResponse struct {
	ID      string         `msgpack:"id"`
	Words   int            `msgpack:"words"`
	Records int            `msgpack:"records"`
	Pending int            `msgpack:"pending"`
	Backend string         `msgpack:"backend,omitempty"`
	Indexed int            `msgpack:"indexed"`
	Cache   map[string]int `msgpack:"cache,omitempty"`
}

// StatusResponse reports server state.
type StatusResponse struct {
	Status string `msgpack:"status"`
}

// LookupError holds basic error information for failed requests
type LookupError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

const (
	CodeBadRequest = 400
	CodeInternal   = 500
)
