// Package bounded provides a fixed-capacity byte accumulator that degrades
// instead of failing.
//
// A Buffer stores bytes until its capacity is reached. The write that would
// overflow it switches the buffer into dropped mode: the stored content is
// invalidated and every later write is accepted but discarded. Callers keep
// parsing the surrounding input, so an oversized value never breaks the shape
// of the grammar it is embedded in; only the captured value is lost.
//
//	buf := bounded.New(64)
//	buf.Write(chunk)
//	if buf.Dropped() {
//		// show "cannot be displayed" instead of buf.Bytes()
//	}
package bounded

// Buffer is a bounded accumulator. The zero value has no capacity and drops
// on the first non-empty write; use New.
type Buffer struct {
	data     []byte
	dropped  bool
	consumed int
}

// New returns an empty Buffer that holds at most capacity bytes.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Write implements io.Writer. It never fails: overflow is recorded in the
// buffer state rather than returned.
func (b *Buffer) Write(p []byte) (int, error) {
	b.consumed += len(p)
	if b.dropped {
		return len(p), nil
	}
	if len(b.data)+len(p) > cap(b.data) {
		b.dropped = true
		b.data = b.data[:0]
		return len(p), nil
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// Bytes returns the accumulated bytes, or nil once the buffer has dropped.
// The slice aliases the buffer and is valid until the next Write or Reset.
func (b *Buffer) Bytes() []byte {
	if b.dropped {
		return nil
	}
	return b.data
}

// String returns the accumulated bytes as a string.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Len is the logical length of the stored value. It is zero in dropped mode.
func (b *Buffer) Len() int {
	if b.dropped {
		return 0
	}
	return len(b.data)
}

// Consumed counts every byte ever written since the last Reset, stored or not.
func (b *Buffer) Consumed() int { return b.consumed }

// Cap is the fixed capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Dropped reports whether an overflow occurred since the last Reset.
func (b *Buffer) Dropped() bool { return b.dropped }

// Reset empties the buffer and leaves dropped mode. Capacity is kept.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.dropped = false
	b.consumed = 0
}
