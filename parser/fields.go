package parser

import (
	"fmt"
	"strings"
)

// MaxPathDepth is the deepest BIP32 path a command may carry.
const MaxPathDepth = 10

// Bytes parses a field made of a one-byte count followed by that many bytes.
// A count above the field's capacity is rejected.
type Bytes struct {
	buf     []byte
	count   int
	n       int
	started bool
}

// NewBytes returns a parser for a count-prefixed field of at most max bytes.
func NewBytes(max int) *Bytes {
	return &Bytes{buf: make([]byte, 0, max)}
}

// Parse implements Parser.
func (b *Bytes) Parse(chunk []byte) ([]byte, error) {
	if !b.started {
		if len(chunk) == 0 {
			return chunk, ErrNeedMore
		}
		b.count = int(chunk[0])
		if b.count > cap(b.buf) {
			return nil, Rejectf("field of %d bytes exceeds %d", b.count, cap(b.buf))
		}
		b.started = true
		b.buf = b.buf[:0]
		chunk = chunk[1:]
	}
	take := min(b.count-b.n, len(chunk))
	b.buf = append(b.buf, chunk[:take]...)
	b.n += take
	chunk = chunk[take:]
	if b.n < b.count {
		return chunk, ErrNeedMore
	}
	return chunk, nil
}

// Value returns the field content. It aliases b.
func (b *Bytes) Value() []byte { return b.buf }

// String returns the field content as a string.
func (b *Bytes) String() string { return string(b.buf) }

// Reset prepares b for a new value.
func (b *Bytes) Reset() {
	b.buf = b.buf[:0]
	b.count = 0
	b.n = 0
	b.started = false
}

// Path parses a BIP32 derivation path: a component count (at most
// MaxPathDepth) followed by little-endian uint32 components.
type Path struct {
	components [MaxPathDepth]uint32
	count      int
	n          int
	started    bool
	cur        U32LE
}

// Parse implements Parser.
func (p *Path) Parse(chunk []byte) ([]byte, error) {
	if !p.started {
		if len(chunk) == 0 {
			return chunk, ErrNeedMore
		}
		p.count = int(chunk[0])
		if p.count > MaxPathDepth {
			return nil, Rejectf("path of %d components exceeds %d", p.count, MaxPathDepth)
		}
		p.started = true
		chunk = chunk[1:]
	}
	for p.n < p.count {
		rest, err := p.cur.Parse(chunk)
		if err != nil {
			return rest, err
		}
		p.components[p.n] = p.cur.Value
		p.n++
		p.cur.Reset()
		chunk = rest
	}
	return chunk, nil
}

// Components returns the parsed path. It aliases p.
func (p *Path) Components() []uint32 { return p.components[:p.count] }

// Reset prepares p for a new path.
func (p *Path) Reset() { *p = Path{} }

// HardenedOffset marks a hardened BIP32 index.
const HardenedOffset = 0x80000000

// FormatPath renders components in the m/44'/626'/0' notation.
func FormatPath(components []uint32) string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, c := range components {
		if c >= HardenedOffset {
			fmt.Fprintf(&sb, "/%d'", c-HardenedOffset)
		} else {
			fmt.Fprintf(&sb, "/%d", c)
		}
	}
	return sb.String()
}
