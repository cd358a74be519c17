// Package pktline implements reading payloads from pkt-lines and creating
// pkt-lines from payloads, as described in the pack protocol documentation
// shipped with git.
package pktline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxPayloadSize is the maximum payload size of a pkt-line in bytes.
	MaxPayloadSize = 65516

	lenSize = 4
)

var (
	// ErrPayloadTooLong is returned by the Add methods when any of the
	// provided payloads is bigger than MaxPayloadSize.
	ErrPayloadTooLong = errors.New("payload is too long")

	flush = []byte{'0', '0', '0', '0'}
)

// Encoder accumulates a succession of pkt-lines. Values from this type are
// not zero-value safe, use the NewEncoder function instead.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder (with no payloads) ready to be used.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// AddFlush adds a flush-pkt.
func (e *Encoder) AddFlush() {
	e.buf.Write(flush)
}

// Add adds the slices in pp as the payloads of a corresponding number of
// pkt-lines. An empty slice produces a flush-pkt.
func (e *Encoder) Add(pp ...[]byte) error {
	for _, p := range pp {
		if err := e.add(p); err != nil {
			return err
		}
	}

	return nil
}

// AddString adds the strings in pp as the payloads of a corresponding
// number of pkt-lines. An empty string produces a flush-pkt.
func (e *Encoder) AddString(pp ...string) error {
	for _, p := range pp {
		if err := e.add([]byte(p)); err != nil {
			return err
		}
	}

	return nil
}

// Addf adds a single pkt-line with the payload built from a format string.
func (e *Encoder) Addf(format string, args ...interface{}) error {
	return e.add([]byte(fmt.Sprintf(format, args...)))
}

func (e *Encoder) add(p []byte) error {
	if len(p) > MaxPayloadSize {
		return ErrPayloadTooLong
	}

	if len(p) == 0 {
		e.buf.Write(flush)
		return nil
	}

	e.buf.Write(asciiHex16(len(p) + lenSize))
	e.buf.Write(p)

	return nil
}

// Reader returns a reader for the pkt-lines added so far.
func (e *Encoder) Reader() io.Reader {
	return bytes.NewReader(e.buf.Bytes())
}

// Bytes returns the pkt-lines added so far as a single byte slice.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Returns the hexadecimal ascii representation of the 16 less significant
// bits of n. The length of the returned slice will always be 4. Example:
// if n is 1234 (0x4d2), the return value will be
// []byte{'0', '4', 'd', '2'}.
func asciiHex16(n int) []byte {
	var ret [4]byte
	ret[0] = byteToASCIIHex(byte(n & 0xf000 >> 12))
	ret[1] = byteToASCIIHex(byte(n & 0x0f00 >> 8))
	ret[2] = byteToASCIIHex(byte(n & 0x00f0 >> 4))
	ret[3] = byteToASCIIHex(byte(n & 0x000f))

	return ret[:]
}

// turns a byte into its hexadecimal ascii representation. Example: from 11
// (0xb) to 'b'.
func byteToASCIIHex(n byte) byte {
	if n < 10 {
		return '0' + n
	}

	return 'a' - 10 + n
}
