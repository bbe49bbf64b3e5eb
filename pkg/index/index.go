// Package index holds the candidate indexes queried before definitions are
// fetched. Each backend is bulk built from the sorted vocabulary into one
// immutable file and memory mapped read-only at load time; a rebuild writes
// a fresh file that is swapped in through a Handle.
package index

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// Backend names an index implementation. It doubles as the index file name
// inside the data directory.
type Backend string

const (
	BackendFST  Backend = "fst"
	BackendTopK Backend = "topk"
)

// Backends lists every known backend.
var Backends = []Backend{BackendFST, BackendTopK}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == s {
			return b, nil
		}
	}
	return "", &Error{Backend: Backend(s), Op: "parse", Err: ErrUnknownBackend}
}

// FileName is the fixed file name of the backend's artifact.
func (b Backend) FileName() string { return string(b) }

// Path joins the artifact file name onto dir.
func (b Backend) Path(dir string) string { return filepath.Join(dir, b.FileName()) }

// Params tunes one query. Backends ignore the fields meant for others.
type Params struct {
	// Expensive enables the wider edit distance passes of the fst backend.
	Expensive bool
	// Num is the number of completions the topk backend returns.
	Num int
}

// Index is a loaded, read-only candidate index. Implementations are safe for
// concurrent queries.
type Index interface {
	Backend() Backend
	// Query returns candidate headwords, best first.
	Query(q string, p Params) ([]string, error)
	// Count returns the number of indexed headwords.
	Count() int
	Close() error
}

// Options carries backend specific build and query settings.
type Options struct {
	// Cap bounds the matches the fst backend takes from each strategy.
	Cap int
	// TopKPrefixLen is the longest prefix, in characters, with a stored
	// completion list.
	TopKPrefixLen int
	// TopK is the length of each stored completion list.
	TopK int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{Cap: StrategyCap, TopKPrefixLen: 3, TopK: 16}
}

// Build writes the backend's artifact for words into dir. words must be
// sorted ascending and free of duplicates. The file is replaced atomically
// so a loaded copy of the previous build stays valid, and ends with a
// checksum footer that Load verifies.
func Build(b Backend, words []string, dir string, opts Options) error {
	start := time.Now()
	path := b.Path(dir)
	if !sort.StringsAreSorted(words) {
		return &Error{Backend: b, Op: "build", Path: path, Err: ErrUnsorted}
	}
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] {
			return &Error{Backend: b, Op: "build", Path: path, Err: fmt.Errorf("%w: duplicate %q", ErrUnsorted, words[i])}
		}
	}

	var write func(w io.Writer) error
	switch b {
	case BackendFST:
		write = func(w io.Writer) error { return buildFST(words, w) }
	case BackendTopK:
		write = func(w io.Writer) error { return buildTopK(words, w, opts) }
	default:
		return &Error{Backend: b, Op: "build", Err: ErrUnknownBackend}
	}

	tmp, err := os.CreateTemp(dir, b.FileName()+".*.tmp")
	if err != nil {
		return &Error{Backend: b, Op: "build", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())
	cw := newChecksumWriter(tmp)
	if err := write(cw); err != nil {
		tmp.Close()
		return &Error{Backend: b, Op: "build", Path: path, Err: err}
	}
	if err := cw.writeFooter(); err != nil {
		tmp.Close()
		return &Error{Backend: b, Op: "build", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Backend: b, Op: "build", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &Error{Backend: b, Op: "build", Path: path, Err: err}
	}
	log.Debugf("built %s index of %d words in %v", b, len(words), time.Since(start))
	return nil
}

// Load maps the backend's artifact from dir. Missing or corrupt files fail
// with an error matching ErrIndexUnavailable.
func Load(b Backend, dir string, opts Options) (Index, error) {
	path := b.Path(dir)
	switch b {
	case BackendFST:
		return loadFST(path, opts.Cap)
	case BackendTopK:
		return loadTopK(path)
	default:
		return nil, &Error{Backend: b, Op: "load", Path: path, Err: ErrUnknownBackend}
	}
}
