package apdu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxPathDepth is the deepest derivation path the device accepts.
const MaxPathDepth = 10

// ErrFieldTooLong is returned when a value does not fit its count prefix.
var ErrFieldTooLong = errors.New("apdu: field too long")

// EncodePath writes a derivation path as a component count followed by
// little-endian components.
func EncodePath(path []uint32) ([]byte, error) {
	if len(path) > MaxPathDepth {
		return nil, fmt.Errorf("path of %d components exceeds %d", len(path), MaxPathDepth)
	}
	out := []byte{byte(len(path))}
	for _, c := range path {
		out = binary.LittleEndian.AppendUint32(out, c)
	}
	return out, nil
}

// GetPublicKeyPayload is the payload of InsGetPublicKey.
func GetPublicKeyPayload(path []uint32) ([]byte, error) {
	return EncodePath(path)
}

// SignPayload is the payload of InsSign: the command length, the command
// bytes as they will be submitted, then the path.
func SignPayload(command []byte, path []uint32) ([]byte, error) {
	p, err := EncodePath(path)
	if err != nil {
		return nil, err
	}
	out := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(command)+len(p)), uint32(len(command)))
	out = append(out, command...)
	return append(out, p...), nil
}

// SignHashPayload is the payload of InsSignHash.
func SignHashPayload(hash [32]byte, path []uint32) ([]byte, error) {
	p, err := EncodePath(path)
	if err != nil {
		return nil, err
	}
	return append(hash[:], p...), nil
}

// Transfer holds the fields of InsMakeTransferTx. All values are text as
// they appear in the command, e.g. Amount "1.5" and GasPrice "1.0e-6".
type Transfer struct {
	Kind           byte
	Recipient      string
	RecipientChain string
	Network        string
	Amount         string
	Namespace      string
	Module         string

	GasPrice     string
	GasLimit     string
	CreationTime string
	ChainID      string
	Nonce        string
	TTL          string
}

// TransferPayload is the payload of InsMakeTransferTx: the path, the kind
// byte, then every field with a one-byte length.
func TransferPayload(t *Transfer, path []uint32) ([]byte, error) {
	out, err := EncodePath(path)
	if err != nil {
		return nil, err
	}
	out = append(out, t.Kind)
	fields := []struct {
		name, value string
	}{
		{"recipient", t.Recipient},
		{"recipient chain", t.RecipientChain},
		{"network", t.Network},
		{"amount", t.Amount},
		{"namespace", t.Namespace},
		{"module", t.Module},
		{"gas price", t.GasPrice},
		{"gas limit", t.GasLimit},
		{"creation time", t.CreationTime},
		{"chain id", t.ChainID},
		{"nonce", t.Nonce},
		{"ttl", t.TTL},
	}
	for _, f := range fields {
		if len(f.value) > 0xff {
			return nil, fmt.Errorf("%w: %s has %d bytes", ErrFieldTooLong, f.name, len(f.value))
		}
		out = append(out, byte(len(f.value)))
		out = append(out, f.value...)
	}
	return out, nil
}
