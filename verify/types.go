// Package verify provides end-to-end verification of signatures returned by
// the signing device.
//
// The verification process validates:
//   - the command against the schema the device can review
//   - the public key the device signs with
//   - the Ed25519 signature over the BLAKE2b-256 hash of the exact command bytes
//
// # Verification Flow
//
// Call Verify with the command and the derivation path:
//
//	result, err := verifyService.Verify(ctx, &verify.VerifyRequest{
//		Command: commandJSON,
//		Path:    path,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !result.Valid {
//		log.Printf("Verification failed: %s", result.Message)
//	}
//
// Blind signing takes a hash instead of a command, and VerifyTransfer checks
// a transfer built by the device.
package verify

import (
	"crypto/ed25519"

	"github.com/anchorageoss/visualsign-kadena/apdu"
)

// VerifyRequest represents the parameters for verification. Exactly one of
// Command and Hash is set.
type VerifyRequest struct {
	Command []byte
	// Hash is hex or base64url, for blind signing.
	Hash string
	Path []uint32
	// PublicKeyHex skips asking the device for its key when set.
	PublicKeyHex string
	SkipSchema   bool
}

// TransferRequest represents the parameters for a device built transfer
type TransferRequest struct {
	Transfer *apdu.Transfer
	Path     []uint32
	// PublicKeyHex, when set, must match the key the device signed with.
	PublicKeyHex string
	// Command, when set, is the JSON the signature is checked against.
	Command []byte
}

// VerifyResult represents the result of verification
type VerifyResult struct {
	Valid          bool              `json:"valid"`
	SignatureValid bool              `json:"signatureValid"`
	BlindSigned    bool              `json:"blindSigned"`
	PublicKeyHex   string            `json:"publicKey"`
	HashB64        string            `json:"hash,omitempty"`
	HashHex        string            `json:"hashHex,omitempty"`
	SignatureHex   string            `json:"signature"`
	Message        string            `json:"message,omitempty"`
	PublicKey      ed25519.PublicKey `json:"-"`
	Signature      []byte            `json:"-"`
}
