package jsonstream

import (
	"errors"

	"github.com/anchorageoss/visualsign-kadena/bounded"
)

// MaxDepth bounds the nesting of arrays and objects inside a skipped or
// rendered value.
const MaxDepth = 64

// ErrTooDeep is returned when a value nests deeper than MaxDepth.
var ErrTooDeep = errors.New("jsonstream: nesting too deep")

// Interp consumes the tokens of exactly one JSON value. Next reports done on
// the token that completes the value; that token belongs to the value.
type Interp interface {
	Next(tok Token) (done bool, err error)
}

// Skip consumes one value of any shape and discards it, checking that
// brackets match. A Skip is reusable once a value has completed.
type Skip struct {
	objects uint64
	depth   int
}

// Next implements Interp.
func (s *Skip) Next(tok Token) (bool, error) {
	switch tok.Kind {
	case BeginObject, BeginArray:
		if s.depth == MaxDepth {
			return false, ErrTooDeep
		}
		if tok.Kind == BeginObject {
			s.objects |= 1 << s.depth
		} else {
			s.objects &^= 1 << s.depth
		}
		s.depth++
		return false, nil
	case EndObject, EndArray:
		if s.depth == 0 {
			return false, ErrUnexpected
		}
		s.depth--
		if isObject := s.objects&(1<<s.depth) != 0; isObject != (tok.Kind == EndObject) {
			return false, ErrSyntax
		}
		return s.depth == 0, nil
	case NameSeparator, ValueSeparator:
		if s.depth == 0 {
			return false, ErrUnexpected
		}
		return false, nil
	case StringBegin, StringChunk, NumberChunk:
		return false, nil
	case StringEnd, NumberEnd, True, False, Null:
		return s.depth == 0, nil
	}
	return false, ErrSyntax
}

// Reset forgets a partially skipped value.
func (s *Skip) Reset() { *s = Skip{} }

// Render consumes one value of any shape and writes its compact JSON text to
// Out. Strings keep their quotes and escapes. Out overflowing does not stop
// the walk.
type Render struct {
	Out  *bounded.Buffer
	skip Skip
}

// Next implements Interp.
func (r *Render) Next(tok Token) (bool, error) {
	done, err := r.skip.Next(tok)
	if err != nil {
		return false, err
	}
	switch tok.Kind {
	case BeginObject:
		_ = r.Out.WriteByte('{')
	case EndObject:
		_ = r.Out.WriteByte('}')
	case BeginArray:
		_ = r.Out.WriteByte('[')
	case EndArray:
		_ = r.Out.WriteByte(']')
	case NameSeparator:
		_ = r.Out.WriteByte(':')
	case ValueSeparator:
		_ = r.Out.WriteByte(',')
	case StringBegin, StringEnd:
		_ = r.Out.WriteByte('"')
	case StringChunk, NumberChunk:
		_, _ = r.Out.Write(tok.Data)
	case True:
		_, _ = r.Out.WriteString("true")
	case False:
		_, _ = r.Out.WriteString("false")
	case Null:
		_, _ = r.Out.WriteString("null")
	}
	return done, nil
}

// Reset forgets a partially rendered value. Out is left untouched.
func (r *Render) Reset() { r.skip.Reset() }

// String accepts a single JSON string and appends its raw content, without
// quotes, to Out. Any other value is ErrUnexpected.
type String struct {
	Out  *bounded.Buffer
	open bool
}

// Next implements Interp.
func (s *String) Next(tok Token) (bool, error) {
	switch {
	case !s.open && tok.Kind == StringBegin:
		s.open = true
		return false, nil
	case s.open && tok.Kind == StringChunk:
		_, _ = s.Out.Write(tok.Data)
		return false, nil
	case s.open && tok.Kind == StringEnd:
		s.open = false
		return true, nil
	}
	return false, ErrUnexpected
}

// Reset forgets a partially read string.
func (s *String) Reset() { s.open = false }

// Number accepts a single JSON number and appends its text to Out.
type Number struct {
	Out  *bounded.Buffer
	open bool
}

// Next implements Interp.
func (n *Number) Next(tok Token) (bool, error) {
	switch tok.Kind {
	case NumberChunk:
		n.open = true
		_, _ = n.Out.Write(tok.Data)
		return false, nil
	case NumberEnd:
		if n.open {
			n.open = false
			return true, nil
		}
	}
	return false, ErrUnexpected
}

// Reset forgets a partially read number.
func (n *Number) Reset() { n.open = false }

// Nullable accepts either null or a value accepted by Value.
type Nullable struct {
	Value  Interp
	IsNull bool
	// started is set once the first token has been routed.
	started bool
}

// Next implements Interp.
func (n *Nullable) Next(tok Token) (bool, error) {
	if !n.started {
		n.started = true
		if tok.Kind == Null {
			n.IsNull = true
			n.started = false
			return true, nil
		}
		n.IsNull = false
	}
	done, err := n.Value.Next(tok)
	if done {
		n.started = false
	}
	return done, err
}

// Reset forgets a partially read value. Value is not reset.
func (n *Nullable) Reset() {
	n.started = false
	n.IsNull = false
}
