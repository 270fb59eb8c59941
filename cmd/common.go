// Package cmd holds the command line commands of visualsign-kadena.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/visualsign-kadena/api"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/keys"
	"github.com/anchorageoss/visualsign-kadena/settings"
)

// DefaultPath is the derivation path used when --path is not given.
const DefaultPath = "m/44'/626'/0'"

func hostFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "host",
		Usage:   "Device URL, as printed by serve",
		Value:   "http://127.0.0.1:9999",
		Sources: cli.EnvVars("VISUALSIGN_KADENA_HOST"),
	}
}

func pathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "path",
		Usage:   "BIP32 derivation path, e.g. 44'/626'/0'",
		Value:   DefaultPath,
		Sources: cli.EnvVars("VISUALSIGN_KADENA_PATH"),
	}
}

func seedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "seed",
			Usage:   "Device seed (hex); overrides --seed-file",
			Sources: cli.EnvVars("VISUALSIGN_KADENA_SEED"),
		},
		&cli.StringFlag{
			Name:    "seed-file",
			Usage:   "Seed file (defaults to ~/.config/visualsign-kadena/seed)",
			Sources: cli.EnvVars("VISUALSIGN_KADENA_SEED_FILE"),
		},
	}
}

func settingsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "settings-file",
		Usage:   "Settings file (defaults to ~/.config/visualsign-kadena/settings)",
		Sources: cli.EnvVars("VISUALSIGN_KADENA_SETTINGS"),
	}
}

// ParsePath reads a derivation path. A leading "m/" is optional.
func ParsePath(s string) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "m/") {
		s = "m/" + s
	}
	path, err := accounts.ParseDerivationPath(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse derivation path: %w", err)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("empty derivation path")
	}
	return path, nil
}

func newApp(cmd *cli.Command) *api.App {
	client := api.NewClient(strings.TrimRight(cmd.String("host"), "/"), &http.Client{Timeout: 5 * time.Minute})
	return api.NewApp(client)
}

func loadSeed(ctx context.Context, cmd *cli.Command) (crypto.Seed, error) {
	var provider keys.SeedProvider = &keys.FileSeedProvider{Path: cmd.String("seed-file")}
	if h := cmd.String("seed"); h != "" {
		provider = &keys.HexSeedProvider{Hex: h}
	}
	seed, err := provider.GetSeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed: %w", err)
	}
	return seed, nil
}

func settingsStore(cmd *cli.Command) (*settings.FileStore, error) {
	path := cmd.String("settings-file")
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return &settings.FileStore{Path: path}, nil
}

func printJSON(v interface{}) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(jsonOutput))
	return nil
}
