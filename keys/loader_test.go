package keys

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/visualsign-kadena/testdata"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeedFromFile(t *testing.T) {
	want, err := hex.DecodeString(testdata.TestSeedHex)
	require.NoError(t, err)

	t.Run("plain hex", func(t *testing.T) {
		seed, err := LoadSeedFromFile(writeSeedFile(t, testdata.TestSeedHex+"\n"))
		require.NoError(t, err)
		assert.Equal(t, want, []byte(seed))
	})

	t.Run("with curve", func(t *testing.T) {
		seed, err := LoadSeedFromFile(writeSeedFile(t, testdata.TestSeedHex+":ed25519"))
		require.NoError(t, err)
		assert.Equal(t, want, []byte(seed))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSeedFromFile(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read seed file")
	})
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"valid", testdata.TestSeedHex, ""},
		{"max length", strings.Repeat("ab", MaxSeedSize), ""},
		{"wrong curve", testdata.TestSeedHex + ":p256", "unsupported curve: p256"},
		{"too many parts", testdata.TestSeedHex + ":ed25519:x", "expected 'hexseed'"},
		{"not hex", "zz" + testdata.TestSeedHex, "failed to decode seed hex"},
		{"too short", "00112233", "seed is 4 bytes"},
		{"too long", strings.Repeat("ab", MaxSeedSize+1), "seed is 65 bytes"},
		{"empty", "", "seed is 0 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ParseSeed(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotEmpty(t, seed)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSeed)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSeedProviders(t *testing.T) {
	ctx := context.Background()

	fromFile, err := (&FileSeedProvider{Path: writeSeedFile(t, testdata.TestSeedHex)}).GetSeed(ctx)
	require.NoError(t, err)
	fromHex, err := (&HexSeedProvider{Hex: testdata.TestSeedHex}).GetSeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromHex)

	pub, err := fromFile.PublicKeyAt([]uint32{0x80000000, 0x80000000})
	require.NoError(t, err)
	assert.Equal(t, "83a5c9e49e3652b2548bc955ed699e5dfbc357e51b512dbc3b435ef38f16d59e", hex.EncodeToString(pub))
}

func TestFileSeedProviderDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "visualsign-kadena")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed"), []byte(testdata.TestSeedHex), 0o600))

	path, err := DefaultSeedPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "seed"), path)

	seed, err := (&FileSeedProvider{}).GetSeed(context.Background())
	require.NoError(t, err)
	assert.Len(t, seed, 16)
}
