package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/apdu"
	"github.com/anchorageoss/visualsign-kadena/kadena"
	"github.com/anchorageoss/visualsign-kadena/verify"
)

// TransferCommand creates the transfer command
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Have the device build and sign a coin transfer from the given fields",
		Flags: []cli.Flag{
			hostFlag(),
			pathFlag(),
			&cli.StringFlag{Name: "kind", Usage: "transfer, transfer-create or transfer-crosschain", Value: "transfer"},
			&cli.StringFlag{Name: "recipient", Usage: "Recipient public key (64 hex digits)", Required: true},
			&cli.StringFlag{Name: "recipient-chain", Usage: "Target chain of a cross-chain transfer", Value: "0"},
			&cli.StringFlag{Name: "network", Usage: "Network id", Value: "mainnet01", Sources: cli.EnvVars("VISUALSIGN_KADENA_NETWORK")},
			&cli.StringFlag{Name: "amount", Usage: "Decimal amount", Required: true},
			&cli.StringFlag{Name: "namespace", Usage: "Token namespace; empty for KDA"},
			&cli.StringFlag{Name: "module", Usage: "Token module, required with --namespace"},
			&cli.StringFlag{Name: "gas-price", Usage: "Gas price", Value: "0.00001"},
			&cli.StringFlag{Name: "gas-limit", Usage: "Gas limit", Value: "2300"},
			&cli.StringFlag{Name: "creation-time", Usage: "Creation time in seconds since the epoch (defaults to now)"},
			&cli.StringFlag{Name: "chain-id", Usage: "Chain the transaction runs on", Value: "0"},
			&cli.StringFlag{Name: "nonce", Usage: "Nonce (defaults to the creation time)"},
			&cli.StringFlag{Name: "ttl", Usage: "Time to live in seconds", Value: "600"},
			&cli.StringFlag{Name: "public-key", Usage: "Expected public key (hex) of the sender"},
			&cli.StringFlag{Name: "command-file", Usage: "JSON command to check the signature against"},
		},
		Action: runTransferCommand,
	}
}

// ParseTransferKind maps a kind name to its code.
func ParseTransferKind(s string) (byte, error) {
	for k := kadena.KindTransfer; k <= kadena.KindCrossChain; k++ {
		if k.String() == s {
			return byte(k), nil
		}
	}
	return 0, fmt.Errorf("unknown transfer kind %q", s)
}

func transferFromFlags(cmd *cli.Command, now time.Time) (*apdu.Transfer, error) {
	kind, err := ParseTransferKind(cmd.String("kind"))
	if err != nil {
		return nil, err
	}
	creationTime := cmd.String("creation-time")
	if creationTime == "" {
		creationTime = strconv.FormatInt(now.Unix(), 10)
	}
	nonce := cmd.String("nonce")
	if nonce == "" {
		nonce = creationTime
	}
	return &apdu.Transfer{
		Kind:           kind,
		Recipient:      cmd.String("recipient"),
		RecipientChain: cmd.String("recipient-chain"),
		Network:        cmd.String("network"),
		Amount:         cmd.String("amount"),
		Namespace:      cmd.String("namespace"),
		Module:         cmd.String("module"),
		GasPrice:       cmd.String("gas-price"),
		GasLimit:       cmd.String("gas-limit"),
		CreationTime:   creationTime,
		ChainID:        cmd.String("chain-id"),
		Nonce:          nonce,
		TTL:            cmd.String("ttl"),
	}, nil
}

func runTransferCommand(ctx context.Context, cmd *cli.Command) error {
	path, err := ParsePath(cmd.String("path"))
	if err != nil {
		return err
	}
	transfer, err := transferFromFlags(cmd, time.Now())
	if err != nil {
		return err
	}
	var command []byte
	if f := cmd.String("command-file"); f != "" {
		if command, err = os.ReadFile(f); err != nil {
			return fmt.Errorf("failed to read command file: %w", err)
		}
	}

	formatter := verify.NewFormatter()
	fmt.Fprintf(os.Stderr, "\n=== Transfer ===\n")
	fmt.Fprint(os.Stderr, formatter.FormatTransfer(transfer, "  "))
	fmt.Fprintf(os.Stderr, "Review the transfer on the device...\n")

	result, err := verify.NewService(newApp(cmd), nil).VerifyTransfer(ctx, &verify.TransferRequest{
		Transfer:     transfer,
		Path:         path,
		PublicKeyHex: cmd.String("public-key"),
		Command:      command,
	})
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	printSignSummary(result)

	output := formatter.FormatVerificationResult(result)
	output["creationTime"] = transfer.CreationTime
	output["nonce"] = transfer.Nonce
	return printJSON(output)
}
