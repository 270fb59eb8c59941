package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/cmd"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "visualsign-kadena",
		Usage: "Kadena transaction review and signing device",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "verbosity",
				Usage:   "Log level: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
				Value:   2,
				Sources: cli.EnvVars("VISUALSIGN_KADENA_VERBOSITY"),
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.VersionCommand(),
			cmd.PubkeyCommand(),
			cmd.SignCommand(),
			cmd.SignHashCommand(),
			cmd.TransferCommand(),
			cmd.ReviewCommand(),
			cmd.SettingsCommand(),
			cmd.ExitCommand(),
		},
	}
}

func setupLogging(ctx context.Context, c *cli.Command) (context.Context, error) {
	verbosity := c.Int("verbosity")
	if verbosity < 0 || verbosity > 5 {
		return ctx, fmt.Errorf("verbosity %d out of range 0-5", verbosity)
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(int(verbosity)), true)
	log.SetDefault(log.NewLogger(handler))
	return ctx, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		log.Crit("Command failed", "err", err)
	}
}
