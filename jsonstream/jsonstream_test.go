package jsonstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/visualsign-kadena/bounded"
)

// render feeds input split every step bytes and returns the compact text.
func render(t *testing.T, input string, step int) (string, bool) {
	t.Helper()
	out := bounded.New(1024)
	r := &Render{Out: out}
	var lx Lexer
	done := false
	emit := func(tok Token) error {
		d, err := r.Next(tok)
		done = done || d
		return err
	}
	data := []byte(input)
	for len(data) > 0 {
		n := min(step, len(data))
		require.NoError(t, lx.Feed(data[:n], emit))
		data = data[n:]
	}
	require.NoError(t, lx.Close(emit))
	return out.String(), done
}

func TestRenderCompacts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "string", input: `"k:abc"`, want: `"k:abc"`},
		{name: "number", input: ` 11.5e-3 `, want: `11.5e-3`},
		{name: "literals", input: `[true, false, null]`, want: `[true,false,null]`},
		{name: "decimal object", input: `{ "decimal" : "123.456" }`, want: `{"decimal":"123.456"}`},
		{name: "escapes kept", input: `"a\"b\\cé"`, want: `"a\"b\\cé"`},
		{name: "nested", input: "{\n\t\"a\": [1, {\"b\": []}],\r\n \"c\": {}\n}", want: `{"a":[1,{"b":[]}],"c":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, step := range []int{1, 2, 3, 7, len(tt.input)} {
				got, done := render(t, tt.input, step)
				assert.True(t, done, "step %d", step)
				assert.Equal(t, tt.want, got, "step %d", step)
			}
		})
	}
}

func TestLexerSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bad literal", input: `tru3`},
		{name: "bad escape", input: `"\x"`},
		{name: "bad unicode", input: `"\u12g4"`},
		{name: "control byte", input: "\"a\nb\""},
		{name: "stray byte", input: `@`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lx Lexer
			err := lx.Feed([]byte(tt.input), func(Token) error { return nil })
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestLexerCloseInsideString(t *testing.T) {
	var lx Lexer
	noop := func(Token) error { return nil }
	require.NoError(t, lx.Feed([]byte(`"open`), noop))
	assert.ErrorIs(t, lx.Close(noop), ErrSyntax)
}

func TestSkipMismatchedBrackets(t *testing.T) {
	var s Skip
	var lx Lexer
	err := lx.Feed([]byte(`[1, 2}`), func(tok Token) error {
		_, err := s.Next(tok)
		return err
	})
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestSkipDepthLimit(t *testing.T) {
	var s Skip
	var err error
	for i := 0; i <= MaxDepth && err == nil; i++ {
		_, err = s.Next(Token{Kind: BeginArray})
	}
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestStringAndNumber(t *testing.T) {
	out := bounded.New(8)
	s := &String{Out: out}
	_, err := s.Next(Token{Kind: NumberChunk, Data: []byte("1")})
	assert.ErrorIs(t, err, ErrUnexpected)

	for _, tok := range []Token{{Kind: StringBegin}, {Kind: StringChunk, Data: []byte("ab")}, {Kind: StringChunk, Data: []byte("cd")}} {
		done, err := s.Next(tok)
		require.NoError(t, err)
		require.False(t, done)
	}
	done, err := s.Next(Token{Kind: StringEnd})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "abcd", out.String())

	out.Reset()
	n := &Number{Out: out}
	_, err = n.Next(Token{Kind: NumberEnd})
	assert.ErrorIs(t, err, ErrUnexpected)
	_, err = n.Next(Token{Kind: NumberChunk, Data: []byte("42")})
	require.NoError(t, err)
	done, err = n.Next(Token{Kind: NumberEnd})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "42", out.String())
}

type recordMembers struct {
	keys  []string
	str   String
	skip  Skip
	out   *bounded.Buffer
	dones int
}

func (m *recordMembers) Member(key []byte) (Interp, error) {
	m.keys = append(m.keys, string(key))
	if string(key) == "name" {
		return &m.str, nil
	}
	return &m.skip, nil
}

func (m *recordMembers) MemberDone() error {
	m.dones++
	return nil
}

type countElements struct {
	skip     Skip
	started  int
	finished int
}

func (e *countElements) Element() (Interp, error) {
	e.started++
	return &e.skip, nil
}

func (e *countElements) ElementDone() error {
	e.finished++
	return nil
}

func walkObject(t *testing.T, input string, m Members) (bool, error) {
	t.Helper()
	var w ObjectWalker
	var lx Lexer
	done := false
	err := lx.Feed([]byte(input), func(tok Token) error {
		if done {
			return ErrUnexpected
		}
		d, err := w.Next(tok, m)
		done = d
		return err
	})
	return done, err
}

func TestObjectWalker(t *testing.T) {
	t.Run("members in order", func(t *testing.T) {
		m := &recordMembers{out: bounded.New(16)}
		m.str.Out = m.out
		done, err := walkObject(t, `{"args":[1,[2]],"name":"coin.GAS","x":{"y":null}}`, m)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, []string{"args", "name", "x"}, m.keys)
		assert.Equal(t, 3, m.dones)
		assert.Equal(t, "coin.GAS", m.out.String())
	})

	t.Run("empty object", func(t *testing.T) {
		m := &recordMembers{}
		done, err := walkObject(t, `{}`, m)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Empty(t, m.keys)
	})

	t.Run("long key reported empty", func(t *testing.T) {
		m := &recordMembers{}
		_, err := walkObject(t, `{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa":1}`, m)
		require.NoError(t, err)
		assert.Equal(t, []string{""}, m.keys)
	})

	t.Run("trailing comma", func(t *testing.T) {
		_, err := walkObject(t, `{"a":1,}`, &recordMembers{})
		assert.ErrorIs(t, err, ErrUnexpected)
	})

	t.Run("missing colon", func(t *testing.T) {
		_, err := walkObject(t, `{"a" 1}`, &recordMembers{})
		assert.ErrorIs(t, err, ErrUnexpected)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := walkObject(t, `[1]`, &recordMembers{})
		assert.ErrorIs(t, err, ErrUnexpected)
	})
}

func TestArrayWalker(t *testing.T) {
	walk := func(input string) (*countElements, bool, error) {
		var w ArrayWalker
		var lx Lexer
		e := &countElements{}
		done := false
		err := lx.Feed([]byte(input), func(tok Token) error {
			d, err := w.Next(tok, e)
			done = d
			return err
		})
		return e, done, err
	}

	e, done, err := walk(`[ "a", 1, true, {"k": [null]}, [] ]`)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 5, e.started)
	assert.Equal(t, 5, e.finished)

	e, done, err = walk(`[]`)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Zero(t, e.started)

	_, _, err = walk(`[1,]`)
	assert.ErrorIs(t, err, ErrUnexpected)

	_, _, err = walk(`[1 2]`)
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestNullable(t *testing.T) {
	run := func(n *Nullable, input string) (bool, error) {
		var lx Lexer
		done := false
		err := lx.Feed([]byte(input), func(tok Token) error {
			d, err := n.Next(tok)
			done = done || d
			return err
		})
		return done, err
	}

	out := bounded.New(16)
	n := &Nullable{Value: &String{Out: out}}

	done, err := run(n, `null`)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, n.IsNull)

	done, err = run(n, `"abc"`)
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, n.IsNull)
	assert.Equal(t, "abc", out.String())

	_, err = run(n, `[1]`)
	assert.ErrorIs(t, err, ErrUnexpected)
}
