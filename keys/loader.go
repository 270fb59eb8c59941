// Package keys loads the device seed.
//
// This package implements SeedProvider for the seed the device derives its
// signing keys from.
//
// # Seed File Format
//
// The seed is stored in ~/.config/visualsign-kadena/seed as a single line
// of hex, optionally followed by ":ed25519":
//
//	000102030405060708090a0b0c0d0e0f
//	000102030405060708090a0b0c0d0e0f:ed25519
//
// Seeds must be between 16 and 64 bytes long.
//
// # Loading Seeds
//
// Load the seed using the FileSeedProvider:
//
//	provider := &keys.FileSeedProvider{}
//	seed, err := provider.GetSeed(context.Background())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Or decode one given on the command line:
//
//	seed, err := keys.ParseSeed("000102030405060708090a0b0c0d0e0f")
package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anchorageoss/visualsign-kadena/crypto"
)

// Seed length limits in bytes.
const (
	MinSeedSize = 16
	MaxSeedSize = 64
)

// ErrInvalidSeed is returned for a seed that cannot be used.
var ErrInvalidSeed = errors.New("invalid seed")

// SeedProvider supplies the device seed.
type SeedProvider interface {
	GetSeed(ctx context.Context) (crypto.Seed, error)
}

// FileSeedProvider implements SeedProvider by reading from a file. An empty
// Path means DefaultSeedPath.
type FileSeedProvider struct {
	Path string
}

// GetSeed loads the seed from the file
func (f *FileSeedProvider) GetSeed(ctx context.Context) (crypto.Seed, error) {
	path := f.Path
	if path == "" {
		var err error
		if path, err = DefaultSeedPath(); err != nil {
			return nil, err
		}
	}
	return LoadSeedFromFile(path)
}

// HexSeedProvider implements SeedProvider for a seed given as hex.
type HexSeedProvider struct {
	Hex string
}

// GetSeed decodes the seed
func (h *HexSeedProvider) GetSeed(ctx context.Context) (crypto.Seed, error) {
	return ParseSeed(h.Hex)
}

// DefaultSeedPath returns ~/.config/visualsign-kadena/seed
func DefaultSeedPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "visualsign-kadena", "seed"), nil
}

// LoadSeedFromFile reads a seed file
func LoadSeedFromFile(path string) (crypto.Seed, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(string(content))
}

// ParseSeed decodes "hexseed" or "hexseed:ed25519".
func ParseSeed(s string) (crypto.Seed, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: expected 'hexseed' or 'hexseed:curve'", ErrInvalidSeed)
	}
	if len(parts) == 2 && parts[1] != "ed25519" {
		return nil, fmt.Errorf("%w: unsupported curve: %s, only ed25519 is supported", ErrInvalidSeed, parts[1])
	}

	seed, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode seed hex: %w", ErrInvalidSeed, err)
	}
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, want %d to %d", ErrInvalidSeed, len(seed), MinSeedSize, MaxSeedSize)
	}
	return crypto.Seed(seed), nil
}
