package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/device"
	"github.com/anchorageoss/visualsign-kadena/transport"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "Address to serve the APDU endpoint on",
			Value:   "127.0.0.1:9999",
			Sources: cli.EnvVars("VISUALSIGN_KADENA_LISTEN"),
		},
		&cli.StringFlag{
			Name:    "prompt",
			Usage:   "How prompts are answered: 'terminal' asks on stdin, 'auto' approves everything and reads menu buttons (l, r, b) from stdin",
			Value:   "terminal",
			Sources: cli.EnvVars("VISUALSIGN_KADENA_PROMPT"),
		},
		settingsFlag(),
	}
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the signing device behind an HTTP APDU endpoint",
		Flags:  append(flags, seedFlags()...),
		Action: runServeCommand,
	}
}

func newDisplay(mode string, in io.Reader, out io.Writer) (ui.Display, error) {
	switch mode {
	case "terminal":
		return ui.NewTerminal(in, out), nil
	case "auto":
		return &ui.Auto{Log: log.New("module", "ui")}, nil
	}
	return nil, fmt.Errorf("unknown prompt mode %q, expected 'terminal' or 'auto'", mode)
}

// readButtons sends each button named on a line of r.
func readButtons(ctx context.Context, r io.Reader, buttons chan<- device.Button) {
	defer close(buttons)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		b, err := device.ParseButton(scanner.Text())
		if err != nil {
			log.Warn("Ignoring input", "err", err)
			continue
		}
		select {
		case buttons <- b:
		case <-ctx.Done():
			return
		}
	}
}

func runServeCommand(ctx context.Context, cmd *cli.Command) error {
	mode := cmd.String("prompt")
	display, err := newDisplay(mode, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	seed, err := loadSeed(ctx, cmd)
	if err != nil {
		return err
	}
	store, err := settingsStore(cmd)
	if err != nil {
		return err
	}
	current, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	d := device.New(device.Config{
		Keys:     seed,
		Display:  display,
		Settings: store,
		Log:      log.New("module", "device"),
	})
	server := transport.NewServer(log.New("module", "transport"))

	ln, err := net.Listen("tcp", cmd.String("listen"))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down HTTP server", "err", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "%s listening on http://%s\n", device.VersionString, ln.Addr())
	fmt.Fprintf(os.Stderr, "Settings: %s (blind signing %s)\n", store.Path, enabled(current.BlindSigning))

	var buttons chan device.Button
	if mode == "auto" {
		buttons = make(chan device.Button)
		go readButtons(ctx, os.Stdin, buttons)
	}

	err = d.Run(ctx, server, buttons)
	switch {
	case errors.Is(err, device.ErrExit):
		fmt.Fprintf(os.Stderr, "Device exited\n")
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
