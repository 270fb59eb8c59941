package verify

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/log"

	"github.com/anchorageoss/visualsign-kadena/api"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/device"
	"github.com/anchorageoss/visualsign-kadena/settings"
	"github.com/anchorageoss/visualsign-kadena/transport"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

// Preview is what a device displayed for a command.
type Preview struct {
	Prompts   []ui.Event `json:"prompts"`
	Hash      string     `json:"hash"`
	Signature []byte     `json:"-"`
}

// PreviewCommand runs command through an in-process device that approves
// every prompt. The prompts shown before a rejection are returned together
// with the error.
func PreviewCommand(ctx context.Context, seed crypto.Seed, command []byte, path []uint32) (*Preview, error) {
	rec := ui.NewRecorder()
	d := device.New(device.Config{
		Keys:     seed,
		Display:  rec,
		Settings: settings.NewMemoryStore(settings.Settings{}),
		Log:      log.New("module", "preview"),
	})
	pipe := transport.NewPipe()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, pipe, nil) }()

	sig, err := api.NewApp(pipe).SignTransaction(ctx, command, path)
	cancel()
	if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
		return nil, runErr
	}
	preview := &Preview{
		Prompts:   rec.Events(),
		Hash:      crypto.HashBytes(command).String(),
		Signature: sig,
	}
	return preview, err
}
