// Package kadena implements the command engines that review and sign Kadena
// transactions on the device.
//
// Every engine is a resumable parser (see package parser) fed one packet
// payload at a time. Engines talk to the user through a Prompter at fixed
// checkpoints while they parse; a declined prompt rejects the command. Once
// an engine completes, Response returns the bytes to send back to the host.
//
// # Engines
//
//   - GetAddress: BIP32 path, shows the public key, returns it.
//   - Sign: a length-prefixed JSON command followed by a BIP32 path. The
//     command is hashed with BLAKE2b-256 while it is parsed, so the device
//     never holds more than one packet of it.
//   - SignHash: a raw 32-byte hash followed by a BIP32 path (blind signing).
//   - Transfer: a BIP32 path followed by binary transfer fields. The engine
//     writes the canonical JSON command straight into the hash and signs it.
//
// # Risk classification
//
// Each signer of a JSON command is classified by the capabilities it scopes
// its signature to (see Coverage). Recognized capabilities are shown in a
// readable form; anything else is shown verbatim and the user is warned at
// the end of the command.
package kadena

import (
	"crypto/ed25519"
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/anchorageoss/visualsign-kadena/parser"
)

// ErrInvalidField is wrapped by rejections caused by a malformed binary field.
var ErrInvalidField = errors.New("invalid field")

// Prompter shows confirmation prompts and blocks until the user answers.
// ui.Scroller implements it.
type Prompter interface {
	Prompt(title string, write func(w io.Writer) error) error
	Promptf(title, format string, args ...any) error
	Accept(question string) error
}

// KeyStore derives signing keys. crypto.Seed implements it.
type KeyStore interface {
	DeriveKey(path []uint32) (ed25519.PrivateKey, error)
}

// Env holds the collaborators shared by all engines.
type Env struct {
	UI   Prompter
	Keys KeyStore
	Log  log.Logger
}

// Engine is a command parser that produces a response once it completes.
type Engine interface {
	parser.Parser
	// Response returns the reply payload. It is only meaningful after Parse
	// returned without error.
	Response() []byte
	// Reset prepares the engine for a new command.
	Reset()
}

// prompt shows a formatted prompt. A decline is a rejection.
func (env *Env) prompt(title, format string, args ...any) error {
	return parser.Reject(env.UI.Promptf(title, format, args...))
}

// promptWith shows a prompt rendered by write.
func (env *Env) promptWith(title string, write func(w io.Writer) error) error {
	return parser.Reject(env.UI.Prompt(title, write))
}

// accept asks the final question.
func (env *Env) accept(question string) error {
	return parser.Reject(env.UI.Accept(question))
}

// signingKey derives the key at path. The caller must wipe it.
func (env *Env) signingKey(path []uint32) (ed25519.PrivateKey, error) {
	key, err := env.Keys.DeriveKey(path)
	if err != nil {
		return nil, parser.Rejectf("failed to derive key: %w", err)
	}
	return key, nil
}

func wipe(key ed25519.PrivateKey) {
	clear(key)
}

func (env *Env) logger() log.Logger {
	if env.Log == nil {
		return log.Root()
	}
	return env.Log
}
