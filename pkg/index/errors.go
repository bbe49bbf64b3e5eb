package index

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexUnavailable means the artifact is missing or unreadable. The
	// index is derived data, so callers rebuild it or serve no candidates.
	ErrIndexUnavailable = errors.New("index unavailable")
	ErrUnsorted         = errors.New("vocabulary not sorted")
	ErrUnknownBackend   = errors.New("unknown index backend")
)

// Error records the backend and operation that failed.
type Error struct {
	Backend Backend
	Op      string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("index %s: %v", e.Op, e.Err)
	}
	if e.Path == "" {
		return fmt.Sprintf("index %s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("index %s %s %s: %v", e.Backend, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// unavailable wraps cause so that it matches both ErrIndexUnavailable and
// cause itself.
func unavailable(b Backend, path string, cause error) error {
	return &Error{Backend: b, Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrIndexUnavailable, cause)}
}
