package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HardenedOffset marks a hardened path component.
	HardenedOffset = 0x80000000

	curveKey = "ed25519 seed"
)

// ErrEmptySeed is returned when deriving from a seed with no bytes.
var ErrEmptySeed = errors.New("empty seed")

// Seed is the device master secret. Keys are derived from it with the
// SLIP-0010 Ed25519 scheme, which only defines hardened children: every path
// component is hardened before use, so 44'/626'/0 and 44'/626'/0' select the
// same key.
type Seed []byte

// DeriveKey returns the private key at path.
func (s Seed) DeriveKey(path []uint32) (ed25519.PrivateKey, error) {
	if len(s) == 0 {
		return nil, ErrEmptySeed
	}
	key, chain := master(s)
	for _, index := range path {
		key, chain = child(key, chain, index|HardenedOffset)
	}
	return ed25519.NewKeyFromSeed(key[:]), nil
}

// PublicKeyAt derives the key at path and returns its public half.
func (s Seed) PublicKeyAt(path []uint32) (ed25519.PublicKey, error) {
	priv, err := s.DeriveKey(path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return PublicKey(priv), nil
}

func master(seed []byte) (key, chain [32]byte) {
	mac := hmac.New(sha512.New, []byte(curveKey))
	mac.Write(seed)
	return split(mac.Sum(nil))
}

func child(key, chain [32]byte, index uint32) ([32]byte, [32]byte) {
	var data [37]byte
	copy(data[1:33], key[:])
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, chain[:])
	mac.Write(data[:])
	return split(mac.Sum(nil))
}

func split(i []byte) (left, right [32]byte) {
	copy(left[:], i[:32])
	copy(right[:], i[32:])
	return left, right
}
