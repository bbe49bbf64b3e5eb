// Package cli handles interactive lookups on the command line, useful for
// testing the search pipeline against a real data dir.
package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/bastiangx/offdict/pkg/dict"
	"github.com/charmbracelet/log"
)

// Searcher is the part of dict.Dictionary the handler uses.
type Searcher interface {
	Search(q string, n int, expensive bool) ([]definition.Wrapper, error)
}

// InputHandler reads one query per line and prints the matching entries.
type InputHandler struct {
	dict         Searcher
	in           io.Reader
	out          io.Writer
	limit        int
	expensive    bool
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(d Searcher, in io.Reader, out io.Writer, limit int, expensive bool) *InputHandler {
	return &InputHandler{
		dict:      d,
		in:        in,
		out:       out,
		limit:     limit,
		expensive: expensive,
	}
}

// Start runs the prompt loop until the input ends.
func (h *InputHandler) Start() error {
	log.Print("offdict lookup, type a word and press Enter (Ctrl+D to exit):")
	reader := bufio.NewReader(h.in)
	for {
		line, err := reader.ReadString('\n')
		if q := strings.TrimSpace(line); q != "" {
			if herr := h.handleInput(q); herr != nil {
				return herr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// handleInput runs one search. Bad queries are reported and skipped; other
// failures end the loop.
func (h *InputHandler) handleInput(q string) error {
	h.requestCount++
	start := time.Now()
	found, err := h.dict.Search(q, h.limit, h.expensive)
	if errors.Is(err, dict.ErrInvalidQuery) {
		log.Errorf("Invalid query: %q", q)
		return nil
	}
	if err != nil {
		return err
	}
	log.Debugf("Took [ %v ] for query '%s' (#%d)", time.Since(start), q, h.requestCount)

	if len(found) == 0 {
		log.Warnf("No entries found for '%s'", q)
		return nil
	}
	return Render(h.out, found)
}
