// Package crypto provides the signing core used by the device and the
// verification helpers used by host tooling.
//
// This package provides:
//   - BLAKE2b-256 transaction hashing, incremental or one-shot
//   - Ed25519 signing and verification over a transaction hash
//   - Deterministic key derivation from a seed along a BIP32 path
//   - Hash and address display encodings
//
// # Signing
//
// Hash the exact command bytes and sign the digest:
//
//	h := crypto.NewHasher()
//	h.Write(commandJSON)
//	sig := crypto.Sign(privateKey, h.Sum())
//
// # Verification
//
// Verify a signature returned by the device:
//
//	valid := crypto.VerifyTransaction(publicKey, commandJSON, sig)
//
// # Display
//
// Hashes are shown base64url encoded without padding, the form used by the
// chain's explorers; addresses are the hex encoded public key:
//
//	fmt.Println(hash.String(), crypto.Address(publicKey))
package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// SignatureSize is the length of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// PublicKeySize is the length of a raw Ed25519 public key.
const PublicKeySize = ed25519.PublicKeySize

// Sign signs a transaction hash with an Ed25519 private key
func Sign(privateKey ed25519.PrivateKey, hash Hash) []byte {
	return ed25519.Sign(privateKey, hash[:])
}

// Verify verifies an Ed25519 signature over a transaction hash
func Verify(publicKey ed25519.PublicKey, hash Hash, signature []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, hash[:], signature)
}

// VerifyTransaction hashes the command bytes and verifies the signature
func VerifyTransaction(publicKey ed25519.PublicKey, command []byte, signature []byte) bool {
	return Verify(publicKey, HashBytes(command), signature)
}

// PublicKey returns the raw public key of privateKey
func PublicKey(privateKey ed25519.PrivateKey) ed25519.PublicKey {
	return privateKey.Public().(ed25519.PublicKey)
}

// Address renders a public key the way accounts are displayed: lowercase hex
func Address(publicKey ed25519.PublicKey) string {
	return hex.EncodeToString(publicKey)
}

// ParsePublicKey decodes a hex encoded Ed25519 public key
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key hex: %w", err)
	}
	if len(raw) != PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: got %d, want %d", len(raw), PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}
