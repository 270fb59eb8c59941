// Package device is the signing app: it receives APDU commands, routes them
// to the command engines and drives the menu shown while idle.
//
// Only one multi-packet command is in flight at a time. The engine for it is
// selected by instruction; a packet for a different instruction discards
// whatever was in progress and starts over.
package device

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/anchorageoss/visualsign-kadena/apdu"
	"github.com/anchorageoss/visualsign-kadena/kadena"
	"github.com/anchorageoss/visualsign-kadena/parser"
	"github.com/anchorageoss/visualsign-kadena/settings"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

// App version reported by GetVersion.
const (
	AppName      = "Kadena"
	VersionMajor = 0
	VersionMinor = 2
	VersionPatch = 2
)

// VersionString is the app name and version.
var VersionString = fmt.Sprintf("%s %d.%d.%d", AppName, VersionMajor, VersionMinor, VersionPatch)

// ErrExit is returned by Run after an Exit command or the Quit menu entry.
var ErrExit = errors.New("device: exit requested")

// state tags the command in progress.
type state uint8

const (
	stateIdle state = iota
	stateGetAddress
	stateSign
	stateSignHash
	stateTransfer
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateGetAddress:
		return "get-address"
	case stateSign:
		return "sign"
	case stateSignHash:
		return "sign-hash"
	case stateTransfer:
		return "transfer"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Config holds what a Device needs.
type Config struct {
	Keys     kadena.KeyStore
	Display  ui.Display
	Settings settings.Store
	Log      log.Logger
}

// Device processes one command at a time. It is not safe for concurrent use;
// Run serializes commands and button presses.
type Device struct {
	log      log.Logger
	settings settings.Store
	ui       *ui.Scroller
	engines  map[state]kadena.Engine
	state    state
	menu     menu
	exit     bool
}

// New creates a device.
func New(cfg Config) *Device {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	scroller := ui.NewScroller(cfg.Display)
	env := &kadena.Env{UI: scroller, Keys: cfg.Keys, Log: logger}
	return &Device{
		log:      logger,
		settings: cfg.Settings,
		ui:       scroller,
		engines: map[state]kadena.Engine{
			stateGetAddress: kadena.NewGetAddressEngine(env),
			stateSign:       kadena.NewSignEngine(env),
			stateSignHash:   kadena.NewSignHashEngine(env),
			stateTransfer:   kadena.NewTransferEngine(env),
		},
	}
}

// HandleRaw decodes one packet and processes it. A packet that cannot be
// decoded discards any command in progress.
func (d *Device) HandleRaw(raw []byte) apdu.Response {
	if len(raw) == 0 {
		d.reset()
		return apdu.Response{Status: apdu.StatusNothingReceived}
	}
	var cmd apdu.Command
	if err := cmd.UnmarshalBinary(raw); err != nil {
		d.log.Debug("Malformed command", "err", err, "state", d.state)
		d.reset()
		return apdu.Response{Status: apdu.StatusBadLen}
	}
	return d.Handle(cmd)
}

// Handle processes one command.
func (d *Device) Handle(cmd apdu.Command) apdu.Response {
	d.menu.reset()
	if cmd.Cla != apdu.CLA {
		d.log.Debug("Bad instruction class", "cla", cmd.Cla, "state", d.state)
		d.reset()
		return apdu.Response{Status: apdu.StatusBadCla}
	}
	d.log.Trace("Handling command", "ins", cmd.Ins, "len", len(cmd.Data), "state", d.state)

	switch cmd.Ins {
	case apdu.InsGetVersion:
		data := append([]byte{VersionMajor, VersionMinor, VersionPatch}, AppName...)
		return apdu.Response{Data: data, Status: apdu.StatusOK}
	case apdu.InsGetVersionStr:
		return apdu.Response{Data: []byte(VersionString), Status: apdu.StatusOK}
	case apdu.InsExit:
		d.log.Info("Exiting at host request")
		d.exit = true
		return apdu.Response{Status: apdu.StatusOK}
	case apdu.InsGetPublicKey:
		return d.run(stateGetAddress, cmd.Data)
	case apdu.InsSign:
		return d.run(stateSign, cmd.Data)
	case apdu.InsSignHash:
		s, err := d.settings.Load()
		if err != nil {
			d.log.Warn("Failed to load settings", "err", err)
			d.reset()
			return apdu.Response{Status: apdu.StatusUnknown}
		}
		if !s.BlindSigning {
			d.log.Debug("Blind signing is disabled", "state", d.state)
			d.reset()
			// The hash is refused whatever the answer.
			_ = d.ui.Promptf("Blind Signing must", "be enabled")
			return apdu.Response{Status: apdu.StatusNotSupported}
		}
		return d.run(stateSignHash, cmd.Data)
	case apdu.InsMakeTransferTx:
		return d.run(stateTransfer, cmd.Data)
	}
	d.log.Debug("Unknown instruction", "ins", cmd.Ins, "state", d.state)
	d.reset()
	return apdu.Response{Status: apdu.StatusUnknown}
}

// run feeds one packet to the engine for s.
func (d *Device) run(s state, chunk []byte) apdu.Response {
	if d.state != s {
		if d.state != stateIdle {
			d.log.Debug("Discarding command in progress", "was", d.state, "now", s)
		}
		d.reset()
		d.state = s
		d.menu = menu{}
	}
	e := d.engines[s]

	rest, err := e.Parse(chunk)
	switch {
	case errors.Is(err, parser.ErrNeedMore) && len(rest) == 0:
		return apdu.Response{Status: apdu.StatusOK}
	case errors.Is(err, ui.ErrRejected):
		d.log.Debug("Rejected by user", "state", s)
	case errors.Is(err, parser.ErrNeedMore):
		d.log.Debug("Packet not consumed", "state", s, "left", len(rest))
	case err != nil:
		d.log.Debug("Command rejected", "state", s, "err", err)
	case len(rest) != 0:
		d.log.Debug("Command ended before the packet", "state", s, "left", len(rest))
	default:
		resp := append([]byte(nil), e.Response()...)
		d.reset()
		return apdu.Response{Data: resp, Status: apdu.StatusOK}
	}
	d.reset()
	return apdu.Response{Status: apdu.StatusUnknown}
}

// reset discards any command in progress.
func (d *Device) reset() {
	if e, ok := d.engines[d.state]; ok {
		e.Reset()
	}
	d.state = stateIdle
}

// Busy reports whether a command is in progress.
func (d *Device) Busy() bool { return d.state != stateIdle }

// Exited reports whether an exit was requested.
func (d *Device) Exited() bool { return d.exit }
