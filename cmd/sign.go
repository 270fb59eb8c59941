package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/api"
	"github.com/anchorageoss/visualsign-kadena/verify"
)

// SignCommand creates the sign command
func SignCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Review and sign a JSON command on the device, then verify the signature",
		Flags: []cli.Flag{
			hostFlag(),
			pathFlag(),
			&cli.StringFlag{
				Name:     "file",
				Usage:    "JSON command file; its exact bytes are signed",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "public-key",
				Usage: "Expected public key (hex); skips asking the device for it",
			},
			&cli.BoolFlag{
				Name:  "skip-schema",
				Usage: "Send the command even if it does not match the command schema",
			},
		},
		Action: runSignCommand,
	}
}

func runSignCommand(ctx context.Context, cmd *cli.Command) error {
	path, err := ParsePath(cmd.String("path"))
	if err != nil {
		return err
	}
	command, err := os.ReadFile(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read command file: %w", err)
	}

	service := verify.NewService(newApp(cmd), api.ValidateCommand)
	fmt.Fprintf(os.Stderr, "Review the transaction on the device...\n")
	result, err := service.Verify(ctx, &verify.VerifyRequest{
		Command:      command,
		Path:         path,
		PublicKeyHex: cmd.String("public-key"),
		SkipSchema:   cmd.Bool("skip-schema"),
	})
	if err != nil {
		return fmt.Errorf("signing failed: %w", err)
	}
	printSignSummary(result)
	return printJSON(verify.NewFormatter().FormatVerificationResult(result))
}

// SignHashCommand creates the sign-hash command
func SignHashCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign-hash",
		Usage: "Blind-sign a transaction hash (blind signing must be enabled on the device)",
		Flags: []cli.Flag{
			hostFlag(),
			pathFlag(),
			&cli.StringFlag{
				Name:     "hash",
				Usage:    "Transaction hash, base64url or hex",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "public-key",
				Usage: "Expected public key (hex); skips asking the device for it",
			},
		},
		Action: runSignHashCommand,
	}
}

func runSignHashCommand(ctx context.Context, cmd *cli.Command) error {
	path, err := ParsePath(cmd.String("path"))
	if err != nil {
		return err
	}

	service := verify.NewService(newApp(cmd), nil)
	fmt.Fprintf(os.Stderr, "Review the hash on the device...\n")
	result, err := service.Verify(ctx, &verify.VerifyRequest{
		Hash:         cmd.String("hash"),
		Path:         path,
		PublicKeyHex: cmd.String("public-key"),
	})
	if err != nil {
		return fmt.Errorf("signing failed: %w", err)
	}
	printSignSummary(result)
	return printJSON(verify.NewFormatter().FormatVerificationResult(result))
}

func printSignSummary(result *verify.VerifyResult) {
	fmt.Fprintf(os.Stderr, "\n=== Signed ===\n")
	if result.HashB64 != "" {
		fmt.Fprintf(os.Stderr, "✓ Hash: %s\n", result.HashB64)
	}
	fmt.Fprintf(os.Stderr, "✓ Public key: %s\n", result.PublicKeyHex)
	fmt.Fprintf(os.Stderr, "✓ Signature: %s\n", result.SignatureHex)
	if result.SignatureValid {
		fmt.Fprintf(os.Stderr, "✓ Signature verified successfully\n")
	}
	if result.Message != "" {
		fmt.Fprintf(os.Stderr, "ℹ️  %s\n", result.Message)
	}
}
