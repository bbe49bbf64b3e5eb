package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Every index file ends with a footer: magic "ODCS" then the big-endian
// xxhash64 of everything before it.
const (
	footerMagic = "ODCS"
	footerSize  = len(footerMagic) + 8
)

var errChecksum = errors.New("checksum mismatch")

// checksumWriter hashes everything written through it.
type checksumWriter struct {
	w io.Writer
	h *xxhash.Digest
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, h: xxhash.New()}
}

func (c *checksumWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.h.Write(p[:n])
	return n, err
}

// writeFooter appends the footer to the underlying writer.
func (c *checksumWriter) writeFooter() error {
	var b [footerSize]byte
	copy(b[:], footerMagic)
	binary.BigEndian.PutUint64(b[len(footerMagic):], c.h.Sum64())
	_, err := c.w.Write(b[:])
	return err
}

// verify checks the footer of data and returns the payload before it.
func verify(data []byte) ([]byte, error) {
	if len(data) < footerSize {
		return nil, fmt.Errorf("%w: file too short", errChecksum)
	}
	payload, footer := data[:len(data)-footerSize], data[len(data)-footerSize:]
	if !bytes.Equal(footer[:len(footerMagic)], []byte(footerMagic)) {
		return nil, fmt.Errorf("%w: missing footer", errChecksum)
	}
	if want, got := binary.BigEndian.Uint64(footer[len(footerMagic):]), xxhash.Sum64(payload); want != got {
		return nil, fmt.Errorf("%w: %016x != %016x", errChecksum, got, want)
	}
	return payload, nil
}

// recoverCorrupt is deferred around reads of mapped index data. A panic
// there means the bytes are damaged, so it becomes an unavailable error.
func recoverCorrupt(b Backend, err *error) {
	if r := recover(); r != nil {
		*err = &Error{Backend: b, Op: "query", Err: fmt.Errorf("%w: %v", ErrIndexUnavailable, r)}
	}
}
