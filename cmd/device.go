package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/crypto"
)

// VersionCommand creates the version command
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show the version of the app running on the device",
		Flags:  []cli.Flag{hostFlag()},
		Action: runVersionCommand,
	}
}

func runVersionCommand(ctx context.Context, cmd *cli.Command) error {
	app := newApp(cmd)
	v, err := app.GetVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	s, err := app.GetVersionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version string: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Device reports %s\n", s)
	return printJSON(v)
}

// PubkeyCommand creates the pubkey command
func PubkeyCommand() *cli.Command {
	return &cli.Command{
		Name:   "pubkey",
		Usage:  "Show and return the public key at a derivation path (the device asks for confirmation)",
		Flags:  []cli.Flag{hostFlag(), pathFlag()},
		Action: runPubkeyCommand,
	}
}

func runPubkeyCommand(ctx context.Context, cmd *cli.Command) error {
	path, err := ParsePath(cmd.String("path"))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Confirm the public key on the device...\n")
	pub, err := newApp(cmd).GetPublicKey(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}
	address := crypto.Address(pub)
	fmt.Fprintf(os.Stderr, "✓ Public key confirmed\n")
	return printJSON(map[string]string{
		"path":      cmd.String("path"),
		"publicKey": address,
		"account":   "k:" + address,
	})
}

// ExitCommand creates the exit command
func ExitCommand() *cli.Command {
	return &cli.Command{
		Name:  "exit",
		Usage: "Ask the device to quit",
		Flags: []cli.Flag{hostFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := newApp(cmd).Exit(ctx); err != nil {
				return fmt.Errorf("failed to exit: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Device exited\n")
			return nil
		},
	}
}
