package kadena

import (
	"github.com/anchorageoss/visualsign-kadena/bounded"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/parser"
)

// GetAddressEngine shows and returns the public key at a BIP32 path.
// Response: the key length followed by the raw public key.
type GetAddressEngine struct {
	env  *Env
	path parser.Path
	done bool
	resp *bounded.Buffer
}

// NewGetAddressEngine creates an engine for the GetPublicKey instruction.
func NewGetAddressEngine(env *Env) *GetAddressEngine {
	return &GetAddressEngine{env: env, resp: bounded.New(MaxResponseLen)}
}

// Parse implements parser.Parser.
func (e *GetAddressEngine) Parse(chunk []byte) ([]byte, error) {
	if e.done {
		return chunk, nil
	}
	rest, err := e.path.Parse(chunk)
	if err != nil {
		return rest, err
	}
	key, err := e.env.signingKey(e.path.Components())
	if err != nil {
		return nil, err
	}
	pub := crypto.PublicKey(key)
	wipe(key)

	if err := e.env.prompt("Provide Public Key", "%s", crypto.Address(pub)); err != nil {
		return nil, err
	}
	if err := e.env.accept("Confirm"); err != nil {
		return nil, err
	}
	_ = e.resp.WriteByte(byte(len(pub)))
	_, _ = e.resp.Write(pub)
	e.done = true
	return rest, nil
}

// Response implements Engine.
func (e *GetAddressEngine) Response() []byte { return e.resp.Bytes() }

// Reset implements Engine.
func (e *GetAddressEngine) Reset() {
	e.path.Reset()
	e.done = false
	e.resp.Reset()
}
