package verify

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/anchorageoss/visualsign-kadena/api"
	"github.com/anchorageoss/visualsign-kadena/apdu"
	"github.com/anchorageoss/visualsign-kadena/crypto"
)

// DeviceClient is the part of api.App the service needs
type DeviceClient interface {
	GetPublicKey(ctx context.Context, path []uint32) (ed25519.PublicKey, error)
	SignTransaction(ctx context.Context, command []byte, path []uint32) ([]byte, error)
	SignHash(ctx context.Context, hash crypto.Hash, path []uint32) ([]byte, error)
	MakeTransferTx(ctx context.Context, t *apdu.Transfer, path []uint32) (*api.TransferResult, error)
}

// CommandValidator checks a command before it is sent, like api.ValidateCommand
type CommandValidator func(command []byte) error

// Service handles verification logic
type Service struct {
	device   DeviceClient
	validate CommandValidator
}

// NewService creates a new verification service. validate may be nil.
func NewService(device DeviceClient, validate CommandValidator) *Service {
	return &Service{
		device:   device,
		validate: validate,
	}
}

// Verify has the device sign a command (or a hash) and checks the signature
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	result := &VerifyResult{}

	// Step 1: Work out the hash the signature must cover
	var hash crypto.Hash
	switch {
	case req.Command != nil && req.Hash != "":
		return nil, errors.New("both a command and a hash were given")
	case req.Command != nil:
		if s.validate != nil && !req.SkipSchema {
			if err := s.validate(req.Command); err != nil {
				return nil, fmt.Errorf("failed to validate command: %w", err)
			}
		}
		hash = crypto.HashBytes(req.Command)
	case req.Hash != "":
		var err error
		if hash, err = crypto.ParseHash(req.Hash); err != nil {
			return nil, err
		}
		result.BlindSigned = true
	default:
		return nil, errors.New("no command or hash to sign")
	}
	result.HashB64 = hash.String()
	result.HashHex = hash.Hex()

	// Step 2: Get the public key the signature must verify under
	publicKey, err := s.publicKey(ctx, req.PublicKeyHex, req.Path)
	if err != nil {
		return nil, err
	}
	result.PublicKey = publicKey
	result.PublicKeyHex = crypto.Address(publicKey)

	// Step 3: Have the device review and sign
	var signature []byte
	if result.BlindSigned {
		signature, err = s.device.SignHash(ctx, hash, req.Path)
	} else {
		signature, err = s.device.SignTransaction(ctx, req.Command, req.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	result.Signature = signature
	result.SignatureHex = hex.EncodeToString(signature)

	// Step 4: Verify signature
	if !crypto.Verify(publicKey, hash, signature) {
		return nil, errors.New("signature verification failed")
	}
	result.SignatureValid = true
	result.Valid = true
	return result, nil
}

// VerifyTransfer has the device build and sign a transfer and checks what
// can be checked: the signing key when PublicKeyHex is set and the signature
// when Command is set.
func (s *Service) VerifyTransfer(ctx context.Context, req *TransferRequest) (*VerifyResult, error) {
	res, err := s.device.MakeTransferTx(ctx, req.Transfer, req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to make transfer: %w", err)
	}
	result := &VerifyResult{
		PublicKey:    ed25519.PublicKey(res.PublicKey),
		PublicKeyHex: hex.EncodeToString(res.PublicKey),
		Signature:    res.Signature,
		SignatureHex: hex.EncodeToString(res.Signature),
	}

	if req.PublicKeyHex != "" {
		expected, err := crypto.ParsePublicKey(req.PublicKeyHex)
		if err != nil {
			return nil, err
		}
		if !expected.Equal(result.PublicKey) {
			return nil, fmt.Errorf("public key mismatch: expected %s, got %s", req.PublicKeyHex, result.PublicKeyHex)
		}
	}

	if req.Command == nil {
		result.Message = "signature not checked: no command given"
		return result, nil
	}
	hash := crypto.HashBytes(req.Command)
	result.HashB64 = hash.String()
	result.HashHex = hash.Hex()
	if !crypto.Verify(result.PublicKey, hash, result.Signature) {
		return nil, errors.New("signature verification failed")
	}
	result.SignatureValid = true
	result.Valid = true
	return result, nil
}

func (s *Service) publicKey(ctx context.Context, publicKeyHex string, path []uint32) (ed25519.PublicKey, error) {
	if publicKeyHex != "" {
		return crypto.ParsePublicKey(publicKeyHex)
	}
	publicKey, err := s.device.GetPublicKey(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	return publicKey, nil
}
