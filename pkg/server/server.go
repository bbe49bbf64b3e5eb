package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/offdict/internal/logger"
	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/dict"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Dictionary is what the server needs from a dict.Dictionary.
type Dictionary interface {
	Search(q string, n int, expensive bool) ([]definition.Wrapper, error)
	Stats() (dict.Stats, error)
}

// Options tunes a Server. Zero fields take the defaults.
type Options struct {
	In  io.Reader
	Out io.Writer
	// DefaultLimit applies to requests without a limit.
	DefaultLimit int
	// MaxLimit clamps larger request limits.
	MaxLimit int
}

// Server handles the IPC for dictionary lookups
type Server struct {
	dict    Dictionary
	opts    Options
	dec     *msgpack.Decoder
	out     *bufio.Writer
	enc     *msgpack.Encoder
	log     *log.Logger
	handled int
}

// NewServer creates a lookup server, using stdin/stdout unless opts say
// otherwise.
func NewServer(d Dictionary, opts Options) *Server {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 3
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 32
	}
	out := bufio.NewWriter(opts.Out)
	return &Server{
		dict: d,
		opts: opts,
		dec:  msgpack.NewDecoder(bufio.NewReader(opts.In)),
		out:  out,
		enc:  msgpack.NewEncoder(out),
		log:  logger.New("server"),
	}
}

// Start signals readiness and serves requests until the input ends.
func (s *Server) Start() error {
	s.log.Debug("Starting server", "limit", s.opts.DefaultLimit, "max", s.opts.MaxLimit)
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		var req LookupRequest
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("input closed", "handled", s.handled)
				return nil
			}
			// the stream cannot be resynchronized after a bad frame
			s.log.Errorf("Decoding request: %v", err)
			s.sendError("", "malformed request", CodeBadRequest)
			return fmt.Errorf("decode request: %w", err)
		}
		s.handled++
		if err := s.handle(req); err != nil {
			return err
		}
	}
}

func (s *Server) handle(req LookupRequest) error {
	switch req.Action {
	case "", "lookup":
		return s.handleLookup(req)
	case "stats":
		return s.handleStats(req)
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), CodeBadRequest)
	}
}

func (s *Server) clamp(n int) int {
	switch {
	case n <= 0:
		return s.opts.DefaultLimit
	case n > s.opts.MaxLimit:
		s.log.Debug("clamping limit", "requested", n, "max", s.opts.MaxLimit)
		return s.opts.MaxLimit
	}
	return n
}

func (s *Server) handleLookup(req LookupRequest) error {
	start := time.Now()
	found, err := s.dict.Search(req.Query, s.clamp(req.Limit), req.Expensive)
	if errors.Is(err, dict.ErrInvalidQuery) {
		s.log.Debug("rejected query", "id", req.ID, "query", req.Query)
		return s.sendError(req.ID, err.Error(), CodeBadRequest)
	}
	if err != nil {
		s.log.Errorf("lookup %q: %v", req.Query, err)
		return s.sendError(req.ID, "internal error", CodeInternal)
	}

	words := make([]Entry, len(found))
	for i, w := range found {
		words[i] = Entry{Word: w.Word, Items: w.Items}
	}
	return s.send(LookupResponse{
		ID:        req.ID,
		Words:     words,
		Count:     len(words),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleStats(req LookupRequest) error {
	st, err := s.dict.Stats()
	if err != nil {
		s.log.Errorf("stats: %v", err)
		return s.sendError(req.ID, "internal error", CodeInternal)
	}
	return s.send(StatsResponse{
		ID:      req.ID,
		Words:   st.Words,
		Records: st.Store.Records,
		Pending: st.Store.Pending,
		Backend: string(st.Backend),
		Indexed: st.Indexed,
		Cache:   st.Cache,
	})
}

// send encodes one response and flushes it. Write failures end the server.
func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(LookupError{ID: id, Error: message, Code: code})
}
