// Package jsonstream tokenizes JSON text that arrives in arbitrary chunks.
//
// The Lexer keeps only a few bytes of state between chunks and never buffers
// input: string and number contents are handed out as slices of the chunk
// being fed (StringChunk, NumberChunk), so a value split across chunks arrives
// as several pieces. Interpreters (see Interp) consume the token stream of one
// JSON value at a time and decide what to keep.
//
// Only what a transaction document needs is supported. Escapes are validated
// but not decoded; numbers are checked for their character set only.
package jsonstream

import "errors"

// Kind identifies a token.
type Kind uint8

const (
	BeginObject Kind = iota + 1
	EndObject
	BeginArray
	EndArray
	NameSeparator
	ValueSeparator
	StringBegin
	StringChunk
	StringEnd
	NumberChunk
	NumberEnd
	True
	False
	Null
)

var kindNames = [...]string{
	BeginObject:    "'{'",
	EndObject:      "'}'",
	BeginArray:     "'['",
	EndArray:       "']'",
	NameSeparator:  "':'",
	ValueSeparator: "','",
	StringBegin:    "string",
	StringChunk:    "string data",
	StringEnd:      "end of string",
	NumberChunk:    "number",
	NumberEnd:      "end of number",
	True:           "true",
	False:          "false",
	Null:           "null",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "invalid"
}

// Token is one lexical element. Data is set for StringChunk and NumberChunk
// and aliases the chunk passed to Feed.
type Token struct {
	Kind Kind
	Data []byte
}

var (
	// ErrSyntax is returned for bytes that cannot start or continue a token.
	ErrSyntax = errors.New("jsonstream: syntax error")
	// ErrUnexpected is returned by interpreters for a token that is valid JSON
	// but not allowed at that position.
	ErrUnexpected = errors.New("jsonstream: unexpected token")
)

type lexState uint8

const (
	lexValue lexState = iota
	lexString
	lexEscape
	lexUnicode
	lexNumber
	lexLiteral
)

// Lexer is a resumable JSON tokenizer. The zero value is ready to use.
type Lexer struct {
	state   lexState
	hex     int
	lit     string
	litKind Kind
}

// Reset discards any partial token.
func (l *Lexer) Reset() { *l = Lexer{} }

// Feed scans p and calls emit for every token found. A token cut by the end
// of p is continued by the next call. Feed stops at the first error, from the
// scan or from emit.
func (l *Lexer) Feed(p []byte, emit func(Token) error) error {
	for i := 0; i < len(p); {
		switch l.state {
		case lexValue:
			var k Kind
			switch c := p[i]; c {
			case ' ', '\t', '\n', '\r':
				i++
				continue
			case '{':
				k = BeginObject
			case '}':
				k = EndObject
			case '[':
				k = BeginArray
			case ']':
				k = EndArray
			case ':':
				k = NameSeparator
			case ',':
				k = ValueSeparator
			case '"':
				k = StringBegin
				l.state = lexString
			case 't':
				l.literal("rue", True)
				i++
				continue
			case 'f':
				l.literal("alse", False)
				i++
				continue
			case 'n':
				l.literal("ull", Null)
				i++
				continue
			default:
				if c == '-' || isDigit(c) {
					l.state = lexNumber
					continue
				}
				return ErrSyntax
			}
			i++
			if err := emit(Token{Kind: k}); err != nil {
				return err
			}

		case lexString, lexEscape, lexUnicode:
			start := i
			closed := false
		scan:
			for ; i < len(p); i++ {
				c := p[i]
				switch l.state {
				case lexEscape:
					switch c {
					case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
						l.state = lexString
					case 'u':
						l.state = lexUnicode
						l.hex = 4
					default:
						return ErrSyntax
					}
				case lexUnicode:
					if !isHex(c) {
						return ErrSyntax
					}
					if l.hex--; l.hex == 0 {
						l.state = lexString
					}
				default:
					switch {
					case c == '"':
						closed = true
						break scan
					case c == '\\':
						l.state = lexEscape
					case c < 0x20:
						return ErrSyntax
					}
				}
			}
			if i > start {
				if err := emit(Token{Kind: StringChunk, Data: p[start:i]}); err != nil {
					return err
				}
			}
			if closed {
				i++
				l.state = lexValue
				if err := emit(Token{Kind: StringEnd}); err != nil {
					return err
				}
			}

		case lexNumber:
			start := i
			for i < len(p) && isNumberByte(p[i]) {
				i++
			}
			if i > start {
				if err := emit(Token{Kind: NumberChunk, Data: p[start:i]}); err != nil {
					return err
				}
			}
			if i < len(p) {
				l.state = lexValue
				if err := emit(Token{Kind: NumberEnd}); err != nil {
					return err
				}
			}

		case lexLiteral:
			if p[i] != l.lit[0] {
				return ErrSyntax
			}
			i++
			if l.lit = l.lit[1:]; l.lit == "" {
				l.state = lexValue
				if err := emit(Token{Kind: l.litKind}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Close ends the input. A pending number is terminated; a cut string or
// literal is a syntax error.
func (l *Lexer) Close(emit func(Token) error) error {
	switch l.state {
	case lexValue:
		return nil
	case lexNumber:
		l.state = lexValue
		return emit(Token{Kind: NumberEnd})
	default:
		return ErrSyntax
	}
}

func (l *Lexer) literal(rest string, k Kind) {
	l.state = lexLiteral
	l.lit = rest
	l.litKind = k
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNumberByte(c byte) bool {
	return isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}
