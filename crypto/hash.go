package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the length of a transaction hash.
const HashSize = blake2b.Size256

// Hash is a BLAKE2b-256 transaction hash.
type Hash [HashSize]byte

// String renders h as unpadded base64url.
func (h Hash) String() string {
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// Bytes returns h as a slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex renders h as lowercase hex.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// HashBytes hashes data in one shot.
func HashBytes(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// ParseHash accepts a hash as 64 hex characters or as unpadded base64url.
func ParseHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimSpace(s)
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != HashSize {
		raw, err = base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return h, fmt.Errorf("failed to decode hash: %w", err)
		}
	}
	if len(raw) != HashSize {
		return h, fmt.Errorf("invalid hash length: got %d, want %d", len(raw), HashSize)
	}
	copy(h[:], raw)
	return h, nil
}

// Hasher is a running BLAKE2b-256 hash. It implements io.Writer so that text
// can be formatted straight into it.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts an empty hash.
func NewHasher() *Hasher {
	// New256 only fails for keys longer than 64 bytes.
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	return &Hasher{h: h}
}

// Write implements io.Writer.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// WriteString hashes s.
func (h *Hasher) WriteString(s string) (int, error) {
	return h.h.Write([]byte(s))
}

// Sum returns the hash of everything written so far.
func (h *Hasher) Sum() Hash {
	var out Hash
	h.h.Sum(out[:0])
	return out
}

// Reset discards everything written.
func (h *Hasher) Reset() {
	h.h.Reset()
}
