package jsonstream

// MaxKeyLen is the longest member name an ObjectWalker keeps. Longer names
// are reported as an empty key.
const MaxKeyLen = 32

// Members receives the members of an object walked by an ObjectWalker.
type Members interface {
	// Member returns the interpreter for the value of key. An error rejects
	// the object.
	Member(key []byte) (Interp, error)
	// MemberDone is called once the member's value has completed.
	MemberDone() error
}

type objState uint8

const (
	objOpen objState = iota
	objKeyOrEnd
	objKeyNext
	objKey
	objColon
	objValue
	objCommaOrEnd
)

// ObjectWalker checks the framing of one JSON object and hands each member
// value to the interpreter chosen by a Members implementation. The owner feeds
// every token through Next and reacts to done itself.
type ObjectWalker struct {
	state      objState
	key        [MaxKeyLen]byte
	keyLen     int
	keyDropped bool
	value      Interp
}

// Next feeds one token. done is reported on the closing brace.
func (w *ObjectWalker) Next(tok Token, m Members) (bool, error) {
	switch w.state {
	case objOpen:
		if tok.Kind != BeginObject {
			return false, ErrUnexpected
		}
		w.state = objKeyOrEnd
	case objKeyOrEnd, objKeyNext:
		switch {
		case tok.Kind == StringBegin:
			w.keyLen = 0
			w.keyDropped = false
			w.state = objKey
		case tok.Kind == EndObject && w.state == objKeyOrEnd:
			w.state = objOpen
			return true, nil
		default:
			return false, ErrUnexpected
		}
	case objKey:
		switch tok.Kind {
		case StringChunk:
			if w.keyLen+len(tok.Data) > MaxKeyLen {
				w.keyDropped = true
			} else {
				w.keyLen += copy(w.key[w.keyLen:], tok.Data)
			}
		case StringEnd:
			w.state = objColon
		default:
			return false, ErrUnexpected
		}
	case objColon:
		if tok.Kind != NameSeparator {
			return false, ErrUnexpected
		}
		key := w.key[:w.keyLen]
		if w.keyDropped {
			key = w.key[:0]
		}
		v, err := m.Member(key)
		if err != nil {
			return false, err
		}
		w.value = v
		w.state = objValue
	case objValue:
		done, err := w.value.Next(tok)
		if err != nil || !done {
			return false, err
		}
		w.value = nil
		w.state = objCommaOrEnd
		return false, m.MemberDone()
	case objCommaOrEnd:
		switch tok.Kind {
		case ValueSeparator:
			w.state = objKeyNext
		case EndObject:
			w.state = objOpen
			return true, nil
		default:
			return false, ErrUnexpected
		}
	}
	return false, nil
}

// Reset forgets a partially walked object.
func (w *ObjectWalker) Reset() {
	w.state = objOpen
	w.value = nil
}

// Elements receives the elements of an array walked by an ArrayWalker.
type Elements interface {
	// Element returns the interpreter for the next element. An error rejects
	// the array.
	Element() (Interp, error)
	// ElementDone is called once the element has completed.
	ElementDone() error
}

type arrState uint8

const (
	arrOpen arrState = iota
	arrFirstOrEnd
	arrNext
	arrElement
	arrCommaOrEnd
)

// ArrayWalker checks the framing of one JSON array and hands each element to
// the interpreter chosen by an Elements implementation.
type ArrayWalker struct {
	state arrState
	value Interp
}

// Next feeds one token. done is reported on the closing bracket.
func (w *ArrayWalker) Next(tok Token, e Elements) (bool, error) {
	switch w.state {
	case arrOpen:
		if tok.Kind != BeginArray {
			return false, ErrUnexpected
		}
		w.state = arrFirstOrEnd
	case arrFirstOrEnd, arrNext:
		if tok.Kind == EndArray && w.state == arrFirstOrEnd {
			w.state = arrOpen
			return true, nil
		}
		v, err := e.Element()
		if err != nil {
			return false, err
		}
		w.value = v
		w.state = arrElement
		return false, w.feed(tok, e)
	case arrElement:
		return false, w.feed(tok, e)
	case arrCommaOrEnd:
		switch tok.Kind {
		case ValueSeparator:
			w.state = arrNext
		case EndArray:
			w.state = arrOpen
			return true, nil
		default:
			return false, ErrUnexpected
		}
	}
	return false, nil
}

func (w *ArrayWalker) feed(tok Token, e Elements) error {
	done, err := w.value.Next(tok)
	if err != nil || !done {
		return err
	}
	w.value = nil
	w.state = arrCommaOrEnd
	return e.ElementDone()
}

// Reset forgets a partially walked array.
func (w *ArrayWalker) Reset() {
	w.state = arrOpen
	w.value = nil
}
