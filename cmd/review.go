package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/api"
	"github.com/anchorageoss/visualsign-kadena/verify"
)

// ReviewCommand creates the review command
func ReviewCommand() *cli.Command {
	flags := []cli.Flag{
		pathFlag(),
		&cli.StringFlag{
			Name:     "file",
			Usage:    "JSON command file",
			Required: true,
		},
	}
	return &cli.Command{
		Name:   "review",
		Usage:  "Show the prompts a device would display for a JSON command, without a device",
		Flags:  append(flags, seedFlags()...),
		Action: runReviewCommand,
	}
}

func runReviewCommand(ctx context.Context, cmd *cli.Command) error {
	path, err := ParsePath(cmd.String("path"))
	if err != nil {
		return err
	}
	command, err := os.ReadFile(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read command file: %w", err)
	}
	if err := api.ValidateCommand(command); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
	}
	seed, err := loadSeed(ctx, cmd)
	if err != nil {
		return err
	}

	preview, err := verify.PreviewCommand(ctx, seed, command, path)
	if preview != nil {
		fmt.Fprintf(os.Stderr, "\n=== Device Prompts ===\n")
		fmt.Fprint(os.Stderr, verify.NewFormatter().FormatTranscript(preview.Prompts, "  "))
	}
	if err != nil {
		return fmt.Errorf("device rejected the command: %w", err)
	}
	return printJSON(preview)
}
