// Package parser defines the resumable parsing contract used by every command
// engine, plus the small binary field parsers the commands are built from.
//
// A Parser is fed one packet payload at a time. Parse either finishes and
// returns the unconsumed tail of the chunk, or returns ErrNeedMore after
// consuming the whole chunk, or fails. Any failure other than ErrNeedMore
// wraps ErrRejected:
//
//	rest, err := p.Parse(chunk)
//	switch {
//	case errors.Is(err, parser.ErrNeedMore):
//		// wait for the next packet, keep p
//	case err != nil:
//		// reset, report the generic error status
//	default:
//		// done; rest must be empty
//	}
//
// Parsers keep all their state between calls in fixed-size fields.
package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrNeedMore reports that the chunk was consumed entirely and the
	// grammar is not complete yet.
	ErrNeedMore = errors.New("parser: need more input")
	// ErrRejected is wrapped by every error that ends a parse for good.
	ErrRejected = errors.New("parser: rejected")
)

// Parser is a resumable parser.
type Parser interface {
	Parse(chunk []byte) (rest []byte, err error)
}

// Reject wraps err so that it matches ErrRejected.
func Reject(err error) error {
	if err == nil || errors.Is(err, ErrRejected) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRejected, err)
}

// Rejectf builds a rejection with a formatted reason.
func Rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRejected}, args...)...)
}

// Byte parses a single byte.
type Byte struct {
	Value byte
	done  bool
}

// Parse implements Parser.
func (b *Byte) Parse(chunk []byte) ([]byte, error) {
	if b.done {
		return chunk, nil
	}
	if len(chunk) == 0 {
		return chunk, ErrNeedMore
	}
	b.Value = chunk[0]
	b.done = true
	return chunk[1:], nil
}

// Reset prepares b for a new value.
func (b *Byte) Reset() { *b = Byte{} }

// U32LE parses a little-endian uint32.
type U32LE struct {
	Value uint32
	buf   [4]byte
	n     int
}

// Parse implements Parser.
func (u *U32LE) Parse(chunk []byte) ([]byte, error) {
	n := copy(u.buf[u.n:], chunk)
	u.n += n
	chunk = chunk[n:]
	if u.n < len(u.buf) {
		return chunk, ErrNeedMore
	}
	u.Value = binary.LittleEndian.Uint32(u.buf[:])
	return chunk, nil
}

// Reset prepares u for a new value.
func (u *U32LE) Reset() { *u = U32LE{} }

// Fixed parses exactly len(Buf) raw bytes into Buf.
type Fixed struct {
	Buf []byte
	n   int
}

// NewFixed returns a parser for size raw bytes.
func NewFixed(size int) *Fixed {
	return &Fixed{Buf: make([]byte, size)}
}

// Parse implements Parser.
func (f *Fixed) Parse(chunk []byte) ([]byte, error) {
	n := copy(f.Buf[f.n:], chunk)
	f.n += n
	chunk = chunk[n:]
	if f.n < len(f.Buf) {
		return chunk, ErrNeedMore
	}
	return chunk, nil
}

// Reset prepares f for a new value.
func (f *Fixed) Reset() { f.n = 0 }

// Resetter is a Parser that can be rewound for a new value.
type Resetter interface {
	Parser
	Reset()
}

// Seq runs its parsers one after another on the same input.
type Seq struct {
	Parsers []Resetter
	i       int
}

// Parse implements Parser.
func (s *Seq) Parse(chunk []byte) ([]byte, error) {
	for s.i < len(s.Parsers) {
		rest, err := s.Parsers[s.i].Parse(chunk)
		if err != nil {
			return rest, err
		}
		chunk = rest
		s.i++
	}
	return chunk, nil
}

// Reset rewinds every parser in the sequence.
func (s *Seq) Reset() {
	for _, p := range s.Parsers {
		p.Reset()
	}
	s.i = 0
}
