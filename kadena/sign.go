package kadena

import (
	"github.com/anchorageoss/visualsign-kadena/bounded"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/jsonstream"
	"github.com/anchorageoss/visualsign-kadena/parser"
)

// MaxResponseLen bounds every engine response.
const MaxResponseLen = 128

type signPhase uint8

const (
	signLength signPhase = iota
	signBody
	signPath
	signDone
)

// SignEngine reviews and signs a JSON command. Input: the command length
// (uint32, little endian), the command bytes, a BIP32 path. Response: the
// 64-byte Ed25519 signature of the BLAKE2b-256 hash of the command bytes.
type SignEngine struct {
	env       *Env
	phase     signPhase
	length    parser.U32LE
	remaining uint32
	hasher    *crypto.Hasher
	lexer     jsonstream.Lexer
	cmd       *command
	hash      crypto.Hash
	path      parser.Path
	resp      *bounded.Buffer
}

// NewSignEngine creates an engine for the Sign instruction.
func NewSignEngine(env *Env) *SignEngine {
	return &SignEngine{
		env:    env,
		hasher: crypto.NewHasher(),
		cmd:    newCommand(env),
		resp:   bounded.New(MaxResponseLen),
	}
}

// Parse implements parser.Parser.
func (e *SignEngine) Parse(chunk []byte) ([]byte, error) {
	for {
		switch e.phase {
		case signLength:
			rest, err := e.length.Parse(chunk)
			if err != nil {
				return rest, err
			}
			chunk = rest
			e.remaining = e.length.Value
			if err := e.env.prompt("Signing", "Transaction"); err != nil {
				return nil, err
			}
			e.phase = signBody

		case signBody:
			n := min(uint32(len(chunk)), e.remaining)
			body := chunk[:n]
			chunk = chunk[n:]
			e.remaining -= n
			// The hash sees exactly the bytes the network signs.
			_, _ = e.hasher.Write(body)
			if err := e.lexer.Feed(body, e.cmd.Next); err != nil {
				return nil, parser.Reject(err)
			}
			if e.remaining > 0 {
				return chunk, parser.ErrNeedMore
			}
			if err := e.lexer.Close(e.cmd.Next); err != nil {
				return nil, parser.Reject(err)
			}
			if !e.cmd.done {
				return nil, parser.Reject(errTruncated)
			}
			e.hash = e.hasher.Sum()
			if err := e.env.prompt("Transaction hash", "%s", e.hash); err != nil {
				return nil, err
			}
			e.phase = signPath

		case signPath:
			rest, err := e.path.Parse(chunk)
			if err != nil {
				return rest, err
			}
			if err := e.sign(e.path.Components()); err != nil {
				return nil, err
			}
			e.phase = signDone
			return rest, nil

		case signDone:
			return chunk, nil
		}
	}
}

func (e *SignEngine) sign(path []uint32) error {
	key, err := e.env.signingKey(path)
	if err != nil {
		return err
	}
	defer wipe(key)
	if err := e.env.prompt("Sign for Address", "%s", crypto.Address(crypto.PublicKey(key))); err != nil {
		return err
	}
	if err := e.env.accept("Sign Transaction?"); err != nil {
		return err
	}
	_, _ = e.resp.Write(crypto.Sign(key, e.hash))
	e.env.logger().Debug("Signed transaction", "hash", e.hash, "path", parser.FormatPath(path))
	return nil
}

// Hash returns the command hash once the body has been parsed.
func (e *SignEngine) Hash() crypto.Hash { return e.hash }

// Coverage returns the signer classification once the body has been parsed.
func (e *SignEngine) Coverage() Coverage { return e.cmd.Coverage() }

// Response implements Engine.
func (e *SignEngine) Response() []byte { return e.resp.Bytes() }

// Reset implements Engine.
func (e *SignEngine) Reset() {
	e.phase = signLength
	e.length.Reset()
	e.remaining = 0
	e.hasher.Reset()
	e.lexer.Reset()
	e.cmd.Reset()
	e.hash = crypto.Hash{}
	e.path.Reset()
	e.resp.Reset()
}
