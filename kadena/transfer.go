package kadena

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/anchorageoss/visualsign-kadena/bounded"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/parser"
)

// TransferKind selects the code template of a built transfer.
type TransferKind byte

const (
	// KindTransfer moves coins to an existing account.
	KindTransfer TransferKind = iota
	// KindTransferCreate moves coins and creates the receiving account.
	KindTransferCreate
	// KindCrossChain moves coins to an account on another chain.
	KindCrossChain
)

func (k TransferKind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindTransferCreate:
		return "transfer-create"
	case KindCrossChain:
		return "transfer-crosschain"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Capacities of the transfer fields.
const (
	RecipientSize      = 64
	RecipientChainSize = 2
	NetworkSize        = 20
	AmountSize         = 32
	NamespaceSize      = 16
	ModuleSize         = 32
	GasPriceSize       = 20
	GasLimitSize       = 10
	CreationTimeSize   = 12
	ChainIDSize        = 2
	NonceSize          = 32
	TTLSize            = 20
)

type transferPhase uint8

const (
	transferPath transferPhase = iota
	transferParams
	transferMeta
	transferDone
)

// TransferEngine builds and signs a coin transfer from binary fields.
//
// The JSON command is never held in memory: each field group is validated
// and then written into the running hash in the exact layout the chain
// expects. Input: a BIP32 path, the kind byte and six count-prefixed fields
// (recipient, recipient chain, network, amount, namespace, module), then six
// more (gas price, gas limit, creation time, chain id, nonce, ttl).
// Response: the 64-byte signature followed by the 32-byte public key.
type TransferEngine struct {
	env    *Env
	phase  transferPhase
	path   parser.Path
	key    ed25519.PrivateKey
	pkh    string
	hasher *crypto.Hasher
	resp   *bounded.Buffer

	kind           parser.Byte
	recipient      *parser.Bytes
	recipientChain *parser.Bytes
	network        *parser.Bytes
	amount         *parser.Bytes
	namespace      *parser.Bytes
	module         *parser.Bytes
	params         parser.Seq

	gasPrice     *parser.Bytes
	gasLimit     *parser.Bytes
	creationTime *parser.Bytes
	chainID      *parser.Bytes
	nonce        *parser.Bytes
	ttl          *parser.Bytes
	meta         parser.Seq
}

// NewTransferEngine creates an engine for the MakeTransferTx instruction.
func NewTransferEngine(env *Env) *TransferEngine {
	e := &TransferEngine{
		env:            env,
		hasher:         crypto.NewHasher(),
		resp:           bounded.New(MaxResponseLen),
		recipient:      parser.NewBytes(RecipientSize),
		recipientChain: parser.NewBytes(RecipientChainSize),
		network:        parser.NewBytes(NetworkSize),
		amount:         parser.NewBytes(AmountSize),
		namespace:      parser.NewBytes(NamespaceSize),
		module:         parser.NewBytes(ModuleSize),
		gasPrice:       parser.NewBytes(GasPriceSize),
		gasLimit:       parser.NewBytes(GasLimitSize),
		creationTime:   parser.NewBytes(CreationTimeSize),
		chainID:        parser.NewBytes(ChainIDSize),
		nonce:          parser.NewBytes(NonceSize),
		ttl:            parser.NewBytes(TTLSize),
	}
	e.params.Parsers = []parser.Resetter{&e.kind, e.recipient, e.recipientChain, e.network, e.amount, e.namespace, e.module}
	e.meta.Parsers = []parser.Resetter{e.gasPrice, e.gasLimit, e.creationTime, e.chainID, e.nonce, e.ttl}
	return e
}

// Parse implements parser.Parser.
func (e *TransferEngine) Parse(chunk []byte) ([]byte, error) {
	for {
		switch e.phase {
		case transferPath:
			rest, err := e.path.Parse(chunk)
			if err != nil {
				return rest, err
			}
			chunk = rest
			if e.key, err = e.env.signingKey(e.path.Components()); err != nil {
				return nil, err
			}
			e.pkh = crypto.Address(crypto.PublicKey(e.key))
			e.hasher.Reset()
			e.phase = transferParams

		case transferParams:
			rest, err := e.params.Parse(chunk)
			if err != nil {
				return rest, err
			}
			chunk = rest
			if err := e.writeParams(); err != nil {
				return nil, parser.Reject(err)
			}
			e.phase = transferMeta

		case transferMeta:
			rest, err := e.meta.Parse(chunk)
			if err != nil {
				return rest, err
			}
			if err := e.writeMeta(); err != nil {
				return nil, parser.Reject(err)
			}
			if err := e.sign(); err != nil {
				return nil, err
			}
			e.phase = transferDone
			return rest, nil

		case transferDone:
			return chunk, nil
		}
	}
}

// coin is the module that owns the transferred token.
func (e *TransferEngine) coin() string {
	if len(e.namespace.Value()) == 0 {
		return "coin"
	}
	return e.namespace.String() + "." + e.module.String()
}

func (e *TransferEngine) validateParams() error {
	kind := TransferKind(e.kind.Value)
	if kind > KindCrossChain {
		return fmt.Errorf("%w: unknown transfer kind %d", ErrInvalidField, e.kind.Value)
	}
	checks := []struct {
		name  string
		value []byte
		check func([]byte) bool
	}{
		{"recipient", e.recipient.Value(), isAccountKey},
		{"recipient chain", e.recipientChain.Value(), isPositiveInteger},
		{"network", e.network.Value(), isNonEmptyText},
		{"amount", e.amount.Value(), isDecimal},
		{"namespace", e.namespace.Value(), isText},
		{"module", e.module.Value(), isText},
	}
	for _, c := range checks {
		if !c.check(c.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidField, c.name, c.value)
		}
	}
	if len(e.namespace.Value()) > 0 && len(e.module.Value()) == 0 {
		return fmt.Errorf("%w: namespace without a module", ErrInvalidField)
	}
	return nil
}

func (e *TransferEngine) writeParams() error {
	if err := e.validateParams(); err != nil {
		return err
	}
	var (
		w     = e.hasher
		coin  = e.coin()
		pkh   = e.pkh
		recip = e.recipient.String()
		amt   = e.amount.String()
		chain = e.recipientChain.String()
	)
	fmt.Fprintf(w, `{"networkId":"%s"`, e.network.Value())
	switch TransferKind(e.kind.Value) {
	case KindTransfer:
		fmt.Fprintf(w, `,"payload":{"exec":{"data":{},"code":"(%s.transfer \"k:%s\" \"k:%s\" %s)"}}`,
			coin, pkh, recip, amt)
		fmt.Fprintf(w, `,"signers":[{"pubKey":"%s","clist":[{"args":["k:%s","k:%s",%s],"name":"%s.TRANSFER"},{"args":[],"name":"coin.GAS"}]}]`,
			pkh, pkh, recip, amt, coin)
	case KindTransferCreate:
		fmt.Fprintf(w, `,"payload":{"exec":{"data":{"ks":{"pred":"keys-all","keys":["%s"]}},"code":"(%s.transfer-create \"k:%s\" \"k:%s\" (read-keyset \"ks\") %s)"}}`,
			recip, coin, pkh, recip, amt)
		fmt.Fprintf(w, `,"signers":[{"pubKey":"%s","clist":[{"args":["k:%s","k:%s",%s],"name":"%s.TRANSFER"},{"args":[],"name":"coin.GAS"}]}]`,
			pkh, pkh, recip, amt, coin)
	case KindCrossChain:
		fmt.Fprintf(w, `,"payload":{"exec":{"data":{"ks":{"pred":"keys-all","keys":["%s"]}},"code":"(%s.transfer-crosschain \"k:%s\" \"k:%s\" (read-keyset \"ks\") \"%s\" %s)"}}`,
			recip, coin, pkh, recip, chain, amt)
		fmt.Fprintf(w, `,"signers":[{"pubKey":"%s","clist":[{"args":["k:%s","k:%s",%s,"%s"],"name":"%s.TRANSFER_XCHAIN"},{"args":[],"name":"coin.GAS"}]}]`,
			pkh, pkh, recip, amt, chain, coin)
	}
	return nil
}

func (e *TransferEngine) validateMeta() error {
	checks := []struct {
		name  string
		value []byte
		check func([]byte) bool
	}{
		{"gas price", e.gasPrice.Value(), isGasPrice},
		{"gas limit", e.gasLimit.Value(), isPositiveInteger},
		{"chain id", e.chainID.Value(), isPositiveInteger},
		{"creation time", e.creationTime.Value(), isPositiveInteger},
		{"ttl", e.ttl.Value(), isDecimal},
		{"nonce", e.nonce.Value(), isText},
	}
	for _, c := range checks {
		if !c.check(c.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidField, c.name, c.value)
		}
	}
	return nil
}

func (e *TransferEngine) writeMeta() error {
	if err := e.validateMeta(); err != nil {
		return err
	}
	fmt.Fprintf(e.hasher, `,"meta":{"creationTime":%s,"ttl":%s,"gasLimit":%s,"chainId":"%s","gasPrice":%s,"sender":"k:%s"},"nonce":"%s"}`,
		e.creationTime.Value(), e.ttl.Value(), e.gasLimit.Value(), e.chainID.Value(),
		e.gasPrice.Value(), e.pkh, e.nonce.Value())
	return nil
}

func (e *TransferEngine) sign() error {
	defer e.wipeKey()
	token := "KDA"
	if len(e.namespace.Value()) > 0 {
		token = e.coin()
	}
	if err := e.env.prompt("Token:", "%s", token); err != nil {
		return err
	}
	err := e.env.promptWith("Transfer", func(w io.Writer) error {
		if TransferKind(e.kind.Value) == KindCrossChain {
			_, err := fmt.Fprintf(w, "Cross-chain %s from k:%s to k:%s to chain %s on network %s",
				e.amount.Value(), e.pkh, e.recipient.Value(), e.recipientChain.Value(), e.network.Value())
			return err
		}
		_, err := fmt.Fprintf(w, "%s from k:%s to k:%s on network %s",
			e.amount.Value(), e.pkh, e.recipient.Value(), e.network.Value())
		return err
	})
	if err != nil {
		return err
	}
	if err := e.env.prompt("Paying Gas", "at most %s at price %s", e.gasLimit.Value(), e.gasPrice.Value()); err != nil {
		return err
	}
	if err := e.env.accept("Sign Transaction?"); err != nil {
		return err
	}
	hash := e.hasher.Sum()
	_, _ = e.resp.Write(crypto.Sign(e.key, hash))
	_, _ = e.resp.Write(crypto.PublicKey(e.key))
	e.env.logger().Debug("Signed transfer", "kind", TransferKind(e.kind.Value), "hash", hash)
	return nil
}

func (e *TransferEngine) wipeKey() {
	wipe(e.key)
	e.key = nil
}

// Response implements Engine.
func (e *TransferEngine) Response() []byte { return e.resp.Bytes() }

// Reset implements Engine.
func (e *TransferEngine) Reset() {
	e.wipeKey()
	e.phase = transferPath
	e.path.Reset()
	e.pkh = ""
	e.hasher.Reset()
	e.resp.Reset()
	e.params.Reset()
	e.meta.Reset()
}
