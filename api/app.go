package api

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/anchorageoss/visualsign-kadena/apdu"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/transport"
)

// ErrBadReply is returned for a successful response of the wrong shape.
var ErrBadReply = errors.New("unexpected reply from device")

// App speaks the signing app protocol over an Exchanger.
type App struct {
	X transport.Exchanger
}

// NewApp creates an App.
func NewApp(x transport.Exchanger) *App {
	return &App{X: x}
}

// send chunks payload into packets and returns the data of the last reply.
func (a *App) send(ctx context.Context, ins apdu.Instruction, payload []byte) ([]byte, error) {
	cmds := apdu.Chunk(ins, payload)
	for i, cmd := range cmds {
		raw, err := cmd.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to encode command: %w", err)
		}
		rawResp, err := a.X.Exchange(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange %s packet %d/%d: %w", ins, i+1, len(cmds), err)
		}
		var resp apdu.Response
		if err := resp.UnmarshalBinary(rawResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if resp.Status != apdu.StatusOK {
			return nil, &StatusError{Ins: ins, Status: resp.Status}
		}
		if i == len(cmds)-1 {
			return resp.Data, nil
		}
		if len(resp.Data) != 0 {
			return nil, fmt.Errorf("%w: %d bytes before the last packet", ErrBadReply, len(resp.Data))
		}
	}
	return nil, nil
}

// GetVersion returns the app version.
func (a *App) GetVersion(ctx context.Context) (Version, error) {
	data, err := a.send(ctx, apdu.InsGetVersion, nil)
	if err != nil {
		return Version{}, err
	}
	if len(data) < 3 {
		return Version{}, fmt.Errorf("%w: version of %d bytes", ErrBadReply, len(data))
	}
	return Version{Major: data[0], Minor: data[1], Patch: data[2], Name: string(data[3:])}, nil
}

// GetVersionString returns the app name and version as text.
func (a *App) GetVersionString(ctx context.Context) (string, error) {
	data, err := a.send(ctx, apdu.InsGetVersionStr, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetPublicKey returns the public key at path after the user confirms it.
func (a *App) GetPublicKey(ctx context.Context, path []uint32) (ed25519.PublicKey, error) {
	payload, err := apdu.GetPublicKeyPayload(path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode path: %w", err)
	}
	data, err := a.send(ctx, apdu.InsGetPublicKey, payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || int(data[0]) != len(data)-1 || data[0] != crypto.PublicKeySize {
		return nil, fmt.Errorf("%w: public key reply of %d bytes", ErrBadReply, len(data))
	}
	return ed25519.PublicKey(data[1:]), nil
}

// SignTransaction has the device review and sign a JSON command. command
// must be the exact bytes that will be submitted.
func (a *App) SignTransaction(ctx context.Context, command []byte, path []uint32) ([]byte, error) {
	payload, err := apdu.SignPayload(command, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign payload: %w", err)
	}
	data, err := a.send(ctx, apdu.InsSign, payload)
	if err != nil {
		return nil, err
	}
	return signature(data)
}

// SignHash has the device blind-sign a command hash.
func (a *App) SignHash(ctx context.Context, hash crypto.Hash, path []uint32) ([]byte, error) {
	payload, err := apdu.SignHashPayload(hash, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign hash payload: %w", err)
	}
	data, err := a.send(ctx, apdu.InsSignHash, payload)
	if err != nil {
		return nil, err
	}
	return signature(data)
}

// MakeTransferTx has the device build and sign a coin transfer.
func (a *App) MakeTransferTx(ctx context.Context, t *apdu.Transfer, path []uint32) (*TransferResult, error) {
	payload, err := apdu.TransferPayload(t, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer payload: %w", err)
	}
	data, err := a.send(ctx, apdu.InsMakeTransferTx, payload)
	if err != nil {
		return nil, err
	}
	if len(data) != crypto.SignatureSize+crypto.PublicKeySize {
		return nil, fmt.Errorf("%w: transfer reply of %d bytes", ErrBadReply, len(data))
	}
	return &TransferResult{
		Signature: data[:crypto.SignatureSize],
		PublicKey: data[crypto.SignatureSize:],
	}, nil
}

// Exit asks the app to quit.
func (a *App) Exit(ctx context.Context) error {
	_, err := a.send(ctx, apdu.InsExit, nil)
	return err
}

func signature(data []byte) ([]byte, error) {
	if len(data) != crypto.SignatureSize {
		return nil, fmt.Errorf("%w: signature of %d bytes", ErrBadReply, len(data))
	}
	return data, nil
}
