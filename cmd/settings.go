package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// SettingsCommand creates the settings command
func SettingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change the persisted device settings",
		Flags: []cli.Flag{settingsFlag()},
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the settings",
				Action: runShowSettings,
			},
			{
				Name:   "enable-blind-signing",
				Usage:  "Allow the sign-hash instruction",
				Action: setBlindSigning(true),
			},
			{
				Name:   "disable-blind-signing",
				Usage:  "Refuse the sign-hash instruction",
				Action: setBlindSigning(false),
			},
		},
	}
}

func runShowSettings(ctx context.Context, cmd *cli.Command) error {
	store, err := settingsStore(cmd)
	if err != nil {
		return err
	}
	s, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return printJSON(map[string]interface{}{
		"path":         store.Path,
		"blindSigning": s.BlindSigning,
	})
}

func setBlindSigning(on bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		store, err := settingsStore(cmd)
		if err != nil {
			return err
		}
		s, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		s.BlindSigning = on
		if err := store.Save(s); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Blind signing %s in %s\n", enabled(on), store.Path)
		return nil
	}
}
