package kadena

import (
	"github.com/anchorageoss/visualsign-kadena/bounded"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/parser"
)

type signHashPhase uint8

const (
	signHashWarn signHashPhase = iota
	signHashHash
	signHashPath
	signHashDone
)

// SignHashEngine blind-signs a transaction hash. Input: 32 hash bytes and a
// BIP32 path. Response: the 64-byte signature. Whether blind signing is
// allowed at all is decided by the caller.
type SignHashEngine struct {
	env   *Env
	phase signHashPhase
	raw   *parser.Fixed
	hash  crypto.Hash
	path  parser.Path
	resp  *bounded.Buffer
}

// NewSignHashEngine creates an engine for the SignHash instruction.
func NewSignHashEngine(env *Env) *SignHashEngine {
	return &SignHashEngine{
		env:  env,
		raw:  parser.NewFixed(crypto.HashSize),
		resp: bounded.New(MaxResponseLen),
	}
}

// Parse implements parser.Parser.
func (e *SignHashEngine) Parse(chunk []byte) ([]byte, error) {
	for {
		switch e.phase {
		case signHashWarn:
			if err := e.env.prompt("WARNING", "Blind Signing a Transaction Hash is a very unusual operation. Do not continue unless you know what you are doing"); err != nil {
				return nil, err
			}
			e.phase = signHashHash

		case signHashHash:
			rest, err := e.raw.Parse(chunk)
			if err != nil {
				return rest, err
			}
			chunk = rest
			copy(e.hash[:], e.raw.Buf)
			if err := e.env.prompt("Transaction hash", "%s", e.hash); err != nil {
				return nil, err
			}
			e.phase = signHashPath

		case signHashPath:
			rest, err := e.path.Parse(chunk)
			if err != nil {
				return rest, err
			}
			if err := e.sign(e.path.Components()); err != nil {
				return nil, err
			}
			e.phase = signHashDone
			return rest, nil

		case signHashDone:
			return chunk, nil
		}
	}
}

func (e *SignHashEngine) sign(path []uint32) error {
	key, err := e.env.signingKey(path)
	if err != nil {
		return err
	}
	defer wipe(key)
	if err := e.env.prompt("Sign for Address", "%s", crypto.Address(crypto.PublicKey(key))); err != nil {
		return err
	}
	if err := e.env.accept("Sign Transaction Hash?"); err != nil {
		return err
	}
	_, _ = e.resp.Write(crypto.Sign(key, e.hash))
	e.env.logger().Debug("Signed hash", "hash", e.hash, "path", parser.FormatPath(path))
	return nil
}

// Response implements Engine.
func (e *SignHashEngine) Response() []byte { return e.resp.Bytes() }

// Reset implements Engine.
func (e *SignHashEngine) Reset() {
	e.phase = signHashWarn
	e.raw.Reset()
	e.hash = crypto.Hash{}
	e.path.Reset()
	e.resp.Reset()
}
