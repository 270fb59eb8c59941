package kadena

import (
	"fmt"
	"io"

	"github.com/anchorageoss/visualsign-kadena/bounded"
	"github.com/anchorageoss/visualsign-kadena/fold"
	"github.com/anchorageoss/visualsign-kadena/jsonstream"
)

const (
	// MaxCapArgs is the number of capability arguments the device can show.
	MaxCapArgs = 5
	// CapArgsSize is the room shared by the rendered arguments of one
	// capability.
	CapArgsSize = 2048
	// MaxCapNameLen is the longest capability name the device can show.
	MaxCapNameLen = 64
)

type capKind uint8

const (
	capUnknown capKind = iota
	capGas
	capRotate
	capTransfer
	capCrossChain
	// capUndisplayable: the arguments did not fit.
	capUndisplayable
	// capUnnamed: the name did not fit.
	capUnnamed
)

// classify recognizes a capability by its exact name and argument count.
func classify(name []byte, nameDropped bool, nargs int, overflow bool) capKind {
	switch {
	case nameDropped:
		return capUnnamed
	case overflow:
		return capUndisplayable
	}
	switch string(name) {
	case "coin.GAS":
		if nargs == 0 {
			return capGas
		}
	case "coin.ROTATE":
		if nargs == 1 {
			return capRotate
		}
	case "coin.TRANSFER":
		if nargs == 3 {
			return capTransfer
		}
	case "coin.TRANSFER_XCHAIN":
		if nargs == 4 {
			return capCrossChain
		}
	}
	return capUnknown
}

func (k capKind) count() CapCount {
	c := CapCount{Caps: 1}
	switch k {
	case capTransfer, capCrossChain:
		c.Transfers = 1
	case capUnknown, capUndisplayable, capUnnamed:
		c.Unknown = 1
	}
	return c
}

func (k capKind) coverage() Coverage {
	switch k {
	case capGas, capRotate, capTransfer, capCrossChain:
		return Full
	}
	return HasFallback
}

// capArgs walks the argument array of a capability. Arguments are rendered
// as compact JSON one after another into a single buffer and ends records
// where each one stops. A sixth argument, or an argument that does not fit,
// turns the rest of the array into a plain skip.
type capArgs struct {
	walker   jsonstream.ArrayWalker
	render   jsonstream.Render
	skip     jsonstream.Skip
	buf      *bounded.Buffer
	ends     [MaxCapArgs]int
	count    int
	overflow bool
}

func newCapArgs() *capArgs {
	buf := bounded.New(CapArgsSize)
	return &capArgs{buf: buf, render: jsonstream.Render{Out: buf}}
}

func (a *capArgs) Next(tok jsonstream.Token) (bool, error) {
	return a.walker.Next(tok, a)
}

func (a *capArgs) Element() (jsonstream.Interp, error) {
	if a.overflow || a.count == MaxCapArgs || a.buf.Dropped() {
		a.overflow = true
		return &a.skip, nil
	}
	return &a.render, nil
}

func (a *capArgs) ElementDone() error {
	if a.overflow {
		return nil
	}
	if a.buf.Dropped() {
		a.overflow = true
		return nil
	}
	a.ends[a.count] = a.buf.Len()
	a.count++
	return nil
}

// arg returns the rendered text of argument i.
func (a *capArgs) arg(i int) []byte {
	start := 0
	if i > 0 {
		start = a.ends[i-1]
	}
	return a.buf.Bytes()[start:a.ends[i]]
}

func (a *capArgs) Reset() {
	a.walker.Reset()
	a.render.Reset()
	a.skip.Reset()
	a.buf.Reset()
	a.count = 0
	a.overflow = false
}

const (
	capFieldName uint8 = 1 << iota
	capFieldArgs
)

// capability is one element of a clist: {"args": [...], "name": "..."} in
// any member order.
type capability struct {
	walker  jsonstream.ObjectWalker
	name    jsonstream.String
	nameBuf *bounded.Buffer
	args    *capArgs
	seen    uint8
}

func newCapability() *capability {
	nameBuf := bounded.New(MaxCapNameLen)
	return &capability{
		name:    jsonstream.String{Out: nameBuf},
		nameBuf: nameBuf,
		args:    newCapArgs(),
	}
}

func (c *capability) Next(tok jsonstream.Token) (bool, error) {
	return c.walker.Next(tok, c)
}

func (c *capability) Member(key []byte) (jsonstream.Interp, error) {
	switch string(key) {
	case "name":
		return &c.name, markField(&c.seen, capFieldName, key)
	case "args":
		return c.args, markField(&c.seen, capFieldArgs, key)
	}
	return nil, fmt.Errorf("%w: capability field %q", errUnknownField, key)
}

func (c *capability) MemberDone() error { return nil }

func (c *capability) kind() capKind {
	// A capability without args cannot be shown the way the signer sees it.
	overflow := c.args.overflow || c.seen&capFieldArgs == 0
	return classify(c.nameBuf.Bytes(), c.nameBuf.Dropped(), c.args.count, overflow)
}

func (c *capability) Reset() {
	c.walker.Reset()
	c.name.Reset()
	c.nameBuf.Reset()
	c.args.Reset()
	c.seen = 0
}

// capList walks a signer's clist, prompting for every capability as soon as
// it is complete.
type capList struct {
	env      *Env
	walker   jsonstream.ArrayWalker
	cap      *capability
	counts   fold.Accumulator[CapCount]
	coverage fold.Accumulator[Coverage]
}

func newCapList(env *Env) *capList {
	return &capList{
		env:      env,
		cap:      newCapability(),
		counts:   fold.NewAccumulator(CapCountMonoid),
		coverage: fold.NewAccumulator(CoverageMonoid),
	}
}

func (l *capList) Next(tok jsonstream.Token) (bool, error) {
	return l.walker.Next(tok, l)
}

func (l *capList) Element() (jsonstream.Interp, error) {
	l.cap.Reset()
	return l.cap, nil
}

func (l *capList) ElementDone() error {
	if l.cap.seen&capFieldName == 0 {
		return fmt.Errorf("%w: capability without a name", jsonstream.ErrUnexpected)
	}
	kind := l.cap.kind()
	if err := l.review(kind); err != nil {
		return err
	}
	l.counts.Add(kind.count())
	l.coverage.Add(kind.coverage())
	return nil
}

// result is the coverage of the whole list. A list without capabilities does
// not scope anything.
func (l *capList) result() Coverage {
	if l.counts.Value().Caps == 0 {
		return NoCaps
	}
	return l.coverage.Value()
}

func (l *capList) review(kind capKind) error {
	name := l.cap.nameBuf.Bytes()
	args := l.cap.args
	counts := l.counts.Value()
	unknownTitle := fmt.Sprintf("Unknown Capability %d", counts.Unknown+1)
	transferTitle := fmt.Sprintf("Transfer %d", counts.Transfers+1)

	switch kind {
	case capGas:
		return l.env.prompt("Paying Gas", " ")
	case capRotate:
		return l.env.prompt("Rotate for account", "%s", args.arg(0))
	case capTransfer:
		return l.env.prompt(transferTitle, "%s from %s to %s", args.arg(2), args.arg(0), args.arg(1))
	case capCrossChain:
		return l.env.prompt(transferTitle, "Cross-chain %s from %s to %s to chain %s",
			args.arg(2), args.arg(0), args.arg(1), args.arg(3))
	case capUndisplayable:
		return l.env.prompt(unknownTitle, "name: %s, args cannot be displayed on Ledger", name)
	case capUnnamed:
		return l.env.prompt(unknownTitle, "name cannot be displayed on Ledger")
	}
	return l.env.promptWith(unknownTitle, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "name: %s", name); err != nil {
			return err
		}
		if args.count == 0 {
			_, err := io.WriteString(w, ", no args")
			return err
		}
		for i := 0; i < args.count; i++ {
			if _, err := fmt.Fprintf(w, ", arg %d: %s", i+1, args.arg(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *capList) Reset() {
	l.walker.Reset()
	l.cap.Reset()
	l.counts.Reset()
	l.coverage.Reset()
}
