package device

import (
	"context"
	"errors"

	"github.com/anchorageoss/visualsign-kadena/transport"
)

// Run serves commands from t and button presses from buttons until ctx is
// done, the transport fails or an exit is requested (ErrExit). buttons may be
// nil.
func (d *Device) Run(ctx context.Context, t transport.Transport, buttons <-chan Button) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exchanges := make(chan *transport.Exchange)
	failed := make(chan error, 1)
	go func() {
		for {
			ex, err := t.Next(ctx)
			if err != nil {
				failed <- err
				return
			}
			select {
			case exchanges <- ex:
			case <-ctx.Done():
				ex.Reply(nil)
				return
			}
		}
	}()

	d.log.Info("Device ready", "version", VersionString, "screen", d.Screen())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-failed:
			return err
		case ex := <-exchanges:
			resp := d.HandleRaw(ex.Command)
			raw, _ := resp.MarshalBinary()
			d.log.Debug("Command done", "id", ex.ID, "status", resp.Status, "len", len(resp.Data))
			ex.Reply(raw)
			if d.exit {
				return ErrExit
			}
		case b, ok := <-buttons:
			if !ok {
				buttons = nil
				continue
			}
			if err := d.Press(b); err != nil {
				if errors.Is(err, ErrExit) {
					return err
				}
				d.log.Warn("Menu action failed", "err", err)
			}
			d.log.Debug("Button pressed", "button", b, "screen", d.Screen())
		}
	}
}
