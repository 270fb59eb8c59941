package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// Event is one prompt as seen by the user.
type Event struct {
	Title string `json:"header"`
	Text  string `json:"prompt,omitempty"`
	// Final marks the closing yes/no question.
	Final bool `json:"final,omitempty"`
}

// Recorder is a scripted Display. It records every prompt and approves all of
// them except the one whose index (counting from zero, final questions
// included) equals RejectAt.
type Recorder struct {
	RejectAt int

	mu     sync.Mutex
	events []Event
}

// NewRecorder returns a Recorder that approves everything.
func NewRecorder() *Recorder {
	return &Recorder{RejectAt: -1}
}

// Review implements Display.
func (r *Recorder) Review(title string, pages Pages) bool {
	text, err := Text(pages)
	if err != nil {
		text = "<" + err.Error() + ">"
	}
	return r.record(Event{Title: title, Text: text})
}

// Accept implements Display.
func (r *Recorder) Accept(question string) bool {
	return r.record(Event{Title: question, Final: true})
}

func (r *Recorder) record(e Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return len(r.events)-1 != r.RejectAt
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Auto approves every prompt and logs it.
type Auto struct {
	Log log.Logger
}

// Review implements Display.
func (a *Auto) Review(title string, pages Pages) bool {
	text, err := Text(pages)
	if err != nil {
		a.Log.Warn("Failed to render prompt", "title", title, "err", err)
		return false
	}
	a.Log.Info("Prompt approved", "title", title, "text", text)
	return true
}

// Accept implements Display.
func (a *Auto) Accept(question string) bool {
	a.Log.Info("Final prompt approved", "question", question)
	return true
}

// Terminal shows prompts page by page on Out and reads answers from In.
// The user presses enter to scroll, "y" to approve and anything else to
// reject.
type Terminal struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewTerminal creates a terminal display.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: bufio.NewReader(in), Out: out}
}

// Review implements Display.
func (t *Terminal) Review(title string, pages Pages) bool {
	fmt.Fprintf(t.Out, "\n== %s ==\n", title)
	n := pages.Len()
	for i := 0; i < n; i++ {
		page, err := pages.Page(i)
		if err != nil {
			fmt.Fprintf(t.Out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(t.Out, "[%d/%d] %s\n", i+1, n, page)
	}
	return t.ask("Approve? [y/N] ")
}

// Accept implements Display.
func (t *Terminal) Accept(question string) bool {
	fmt.Fprintf(t.Out, "\n== %s ==\n", question)
	return t.ask("Confirm? [y/N] ")
}

func (t *Terminal) ask(question string) bool {
	fmt.Fprint(t.Out, question)
	line, err := t.In.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
