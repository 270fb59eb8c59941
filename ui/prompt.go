// Package ui implements the confirmation prompt primitive used by the signing
// engines.
//
// Prompt text is never assembled in memory. A prompt is described by a write
// function; the Scroller runs it once to measure the text and again for every
// page the display asks for, keeping only one page of PageWidth bytes at a
// time. Displays decide how pages are shown and how the user answers.
package ui

import (
	"errors"
	"fmt"
	"io"
)

// PageWidth is the number of bytes shown on one screen.
const PageWidth = 16

// ErrRejected is returned when the user declines a prompt.
var ErrRejected = errors.New("ui: rejected by user")

// Pages gives random access to a paginated text.
type Pages interface {
	Len() int
	Page(i int) (string, error)
}

// Display is the screen and button driver.
type Display interface {
	// Review shows a titled text and blocks until the user approves (true)
	// or rejects it.
	Review(title string, pages Pages) bool
	// Accept shows the final yes/no question and blocks for the answer.
	Accept(question string) bool
}

// Scroller turns write functions into paged prompts on a Display.
type Scroller struct {
	display Display
	width   int
}

// NewScroller creates a scroller with the standard page width.
func NewScroller(display Display) *Scroller {
	return &Scroller{display: display, width: PageWidth}
}

// Prompt shows the text produced by write under title. It returns
// ErrRejected if the user declines.
func (s *Scroller) Prompt(title string, write func(w io.Writer) error) error {
	var c counter
	if err := write(&c); err != nil {
		return fmt.Errorf("failed to render prompt %q: %w", title, err)
	}
	pages := &writerPages{write: write, width: s.width, total: c.n}
	if !s.display.Review(title, pages) {
		return ErrRejected
	}
	return nil
}

// Promptf shows a formatted text under title.
func (s *Scroller) Promptf(title, format string, args ...any) error {
	return s.Prompt(title, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

// Accept asks the final question. It returns ErrRejected if the user declines.
func (s *Scroller) Accept(question string) error {
	if !s.display.Accept(question) {
		return ErrRejected
	}
	return nil
}

type counter struct{ n int }

func (c *counter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

type writerPages struct {
	write func(w io.Writer) error
	width int
	total int
}

func (p *writerPages) Len() int {
	if p.total == 0 {
		return 1
	}
	return (p.total + p.width - 1) / p.width
}

func (p *writerPages) Page(i int) (string, error) {
	if i < 0 || i >= p.Len() {
		return "", fmt.Errorf("page %d out of range", i)
	}
	pw := pageWriter{skip: i * p.width, buf: make([]byte, 0, p.width)}
	if err := p.write(&pw); err != nil {
		return "", err
	}
	return string(pw.buf), nil
}

// pageWriter keeps the bytes of one page and discards the rest.
type pageWriter struct {
	skip int
	buf  []byte
}

func (w *pageWriter) Write(p []byte) (int, error) {
	n := len(p)
	if w.skip >= len(p) {
		w.skip -= len(p)
		return n, nil
	}
	p = p[w.skip:]
	w.skip = 0
	room := cap(w.buf) - len(w.buf)
	w.buf = append(w.buf, p[:min(room, len(p))]...)
	return n, nil
}

// Text concatenates every page of p.
func Text(p Pages) (string, error) {
	var out []byte
	for i := 0; i < p.Len(); i++ {
		page, err := p.Page(i)
		if err != nil {
			return "", err
		}
		out = append(out, page...)
	}
	return string(out), nil
}
