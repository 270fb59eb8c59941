package kadena

import (
	"errors"
	"fmt"

	"github.com/anchorageoss/visualsign-kadena/bounded"
	"github.com/anchorageoss/visualsign-kadena/fold"
	"github.com/anchorageoss/visualsign-kadena/jsonstream"
)

const (
	// MaxPubKeyLen is the longest signer public key the device can show.
	MaxPubKeyLen = 64
	// MaxNetworkLen is the longest network id the device can show.
	MaxNetworkLen = 32
	// MaxChainIDLen is the longest chain id accepted in meta.
	MaxChainIDLen = 32
	// MaxGasFieldLen bounds the gas limit and gas price texts.
	MaxGasFieldLen = 100
)

var (
	errUnknownField   = fmt.Errorf("%w: unknown field", jsonstream.ErrUnexpected)
	errDuplicateField = fmt.Errorf("%w: duplicate field", jsonstream.ErrUnexpected)
	errTrailingData   = errors.New("data after the end of the command")
	errTruncated      = errors.New("command ends before its last value")
)

func markField(seen *uint8, bit uint8, key []byte) error {
	if *seen&bit != 0 {
		return fmt.Errorf("%w %q", errDuplicateField, key)
	}
	*seen |= bit
	return nil
}

// scalar accepts one string or number and keeps its text.
type scalar struct {
	str jsonstream.String
	num jsonstream.Number
	cur jsonstream.Interp
}

func newScalar(out *bounded.Buffer) *scalar {
	return &scalar{str: jsonstream.String{Out: out}, num: jsonstream.Number{Out: out}}
}

func (s *scalar) Next(tok jsonstream.Token) (bool, error) {
	if s.cur == nil {
		switch tok.Kind {
		case jsonstream.StringBegin:
			s.cur = &s.str
		case jsonstream.NumberChunk:
			s.cur = &s.num
		default:
			return false, jsonstream.ErrUnexpected
		}
	}
	done, err := s.cur.Next(tok)
	if done {
		s.cur = nil
	}
	return done, err
}

func (s *scalar) Reset() {
	s.str.Reset()
	s.num.Reset()
	s.cur = nil
}

// skipFields is an object whose members are restricted to a fixed set of
// names. A member with a nil interpreter is skipped.
type skipFields struct {
	walker  jsonstream.ObjectWalker
	members map[string]jsonstream.Interp
	skip    jsonstream.Skip
	what    string
}

func (o *skipFields) Next(tok jsonstream.Token) (bool, error) {
	return o.walker.Next(tok, o)
}

func (o *skipFields) Member(key []byte) (jsonstream.Interp, error) {
	v, ok := o.members[string(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s field %q", errUnknownField, o.what, key)
	}
	if v == nil {
		return &o.skip, nil
	}
	return v, nil
}

func (o *skipFields) MemberDone() error { return nil }

func (o *skipFields) Reset() {
	o.walker.Reset()
	o.skip.Reset()
	for _, v := range o.members {
		if r, ok := v.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}

// newPayload accepts {"exec": {"code": ..., "data": ...}}. Code and data are
// only hashed.
func newPayload() *skipFields {
	exec := &skipFields{what: "exec", members: map[string]jsonstream.Interp{"code": nil, "data": nil}}
	return &skipFields{what: "payload", members: map[string]jsonstream.Interp{"exec": exec}}
}

const (
	metaChainID uint8 = 1 << iota
	metaGasLimit
	metaGasPrice
	metaSender
	metaTTL
	metaCreationTime
)

// meta shows the chain and the gas terms. Any deviation from the expected
// shape is not an error: the rest of the value is skipped and the user is
// cautioned instead.
type meta struct {
	env      *Env
	skip     jsonstream.Skip
	walker   jsonstream.ObjectWalker
	degraded bool
	seen     uint8
	current  uint8

	chainID  *bounded.Buffer
	gasLimit *bounded.Buffer
	gasPrice *bounded.Buffer
	chain    jsonstream.String
	limit    *scalar
	price    *scalar
	ignore   jsonstream.Skip
}

func newMeta(env *Env) *meta {
	m := &meta{
		env:      env,
		chainID:  bounded.New(MaxChainIDLen),
		gasLimit: bounded.New(MaxGasFieldLen),
		gasPrice: bounded.New(MaxGasFieldLen),
	}
	m.chain.Out = m.chainID
	m.limit = newScalar(m.gasLimit)
	m.price = newScalar(m.gasPrice)
	return m
}

func (m *meta) Next(tok jsonstream.Token) (bool, error) {
	done, err := m.skip.Next(tok)
	if err != nil {
		return false, err
	}
	if !m.degraded {
		if _, err := m.walker.Next(tok, m); err != nil {
			if !errors.Is(err, jsonstream.ErrUnexpected) {
				return false, err
			}
			m.env.logger().Debug("Unrecognized meta", "err", err)
			m.degraded = true
		}
	}
	if !done {
		return false, nil
	}
	return true, m.finish()
}

func (m *meta) Member(key []byte) (jsonstream.Interp, error) {
	var bit uint8
	var v jsonstream.Interp
	switch string(key) {
	case "chainId":
		bit, v = metaChainID, &m.chain
	case "gasLimit":
		bit, v = metaGasLimit, m.limit
	case "gasPrice":
		bit, v = metaGasPrice, m.price
	case "sender":
		bit, v = metaSender, &m.ignore
	case "ttl":
		bit, v = metaTTL, &m.ignore
	case "creationTime":
		bit, v = metaCreationTime, &m.ignore
	default:
		return nil, fmt.Errorf("%w: meta field %q", errUnknownField, key)
	}
	m.current = bit
	return v, markField(&m.seen, bit, key)
}

func (m *meta) MemberDone() error {
	var b *bounded.Buffer
	switch m.current {
	case metaChainID:
		b = m.chainID
	case metaGasLimit:
		b = m.gasLimit
	case metaGasPrice:
		b = m.gasPrice
	default:
		return nil
	}
	if b.Dropped() {
		return fmt.Errorf("%w: meta value too long", jsonstream.ErrUnexpected)
	}
	if m.current == metaChainID {
		return m.env.prompt("On Chain", "%s", m.chainID.Bytes())
	}
	return nil
}

func (m *meta) finish() error {
	if m.degraded || m.seen&(metaGasLimit|metaGasPrice) != metaGasLimit|metaGasPrice {
		return m.env.prompt("CAUTION", "'meta' field of transaction not recognized")
	}
	return m.env.prompt("Using Gas", "at most %s at price %s", m.gasLimit.Bytes(), m.gasPrice.Bytes())
}

func (m *meta) Reset() {
	m.skip.Reset()
	m.walker.Reset()
	m.degraded = false
	m.seen = 0
	m.current = 0
	m.chainID.Reset()
	m.gasLimit.Reset()
	m.gasPrice.Reset()
	m.chain.Reset()
	m.limit.Reset()
	m.price.Reset()
	m.ignore.Reset()
}

const (
	signerPubKey uint8 = 1 << iota
	signerClist
	signerScheme
	signerAddr
)

// signer is one element of the signers array.
type signer struct {
	env     *Env
	walker  jsonstream.ObjectWalker
	pubKey  jsonstream.String
	keyBuf  *bounded.Buffer
	clist   jsonstream.Nullable
	caps    *capList
	ignore  jsonstream.Skip
	seen    uint8
	current uint8
}

func newSigner(env *Env) *signer {
	s := &signer{env: env, keyBuf: bounded.New(MaxPubKeyLen), caps: newCapList(env)}
	s.pubKey.Out = s.keyBuf
	s.clist.Value = s.caps
	return s
}

func (s *signer) Next(tok jsonstream.Token) (bool, error) {
	return s.walker.Next(tok, s)
}

func (s *signer) Member(key []byte) (jsonstream.Interp, error) {
	var bit uint8
	var v jsonstream.Interp
	switch string(key) {
	case "pubKey":
		bit, v = signerPubKey, &s.pubKey
	case "clist":
		bit, v = signerClist, &s.clist
	case "scheme":
		bit, v = signerScheme, &s.ignore
	case "addr":
		bit, v = signerAddr, &s.ignore
	default:
		return nil, fmt.Errorf("%w: signer field %q", errUnknownField, key)
	}
	s.current = bit
	return v, markField(&s.seen, bit, key)
}

func (s *signer) MemberDone() error {
	if s.current != signerPubKey {
		return nil
	}
	if s.keyBuf.Dropped() {
		return s.env.prompt("Of Key", "key cannot be displayed on Ledger")
	}
	return s.env.prompt("Of Key", "%s", s.keyBuf.Bytes())
}

// coverage classifies the signer once its object is complete.
func (s *signer) coverage() Coverage {
	c := NoCaps
	if s.seen&signerClist != 0 && !s.clist.IsNull {
		c = s.caps.result()
	}
	if s.keyBuf.Dropped() {
		CoverageMonoid.Combine(&c, HasFallback)
	}
	return c
}

func (s *signer) Reset() {
	s.walker.Reset()
	s.pubKey.Reset()
	s.keyBuf.Reset()
	s.clist.Reset()
	s.caps.Reset()
	s.ignore.Reset()
	s.seen = 0
	s.current = 0
}

// signerList walks the signers array and folds the signers' coverage.
type signerList struct {
	env      *Env
	walker   jsonstream.ArrayWalker
	signer   *signer
	coverage fold.Accumulator[Coverage]
}

func newSignerList(env *Env) *signerList {
	return &signerList{env: env, signer: newSigner(env), coverage: fold.NewAccumulator(CoverageMonoid)}
}

func (l *signerList) Next(tok jsonstream.Token) (bool, error) {
	return l.walker.Next(tok, l)
}

func (l *signerList) Element() (jsonstream.Interp, error) {
	if err := l.env.prompt("Requiring", "Capabilities"); err != nil {
		return nil, err
	}
	l.signer.Reset()
	return l.signer, nil
}

func (l *signerList) ElementDone() error {
	if l.signer.seen&signerPubKey == 0 {
		return fmt.Errorf("%w: signer without a pubKey", jsonstream.ErrUnexpected)
	}
	c := l.signer.coverage()
	if c == NoCaps && !l.signer.keyBuf.Dropped() {
		if err := l.env.prompt("Unscoped Signer", "%s", l.signer.keyBuf.Bytes()); err != nil {
			return err
		}
	}
	l.coverage.Add(c)
	return nil
}

func (l *signerList) Reset() {
	l.walker.Reset()
	l.signer.Reset()
	l.coverage.Reset()
}

// network shows the network id. A value that is not a string, null
// included, is skipped and not shown.
type network struct {
	env     *Env
	str     jsonstream.String
	skip    jsonstream.Skip
	buf     *bounded.Buffer
	started bool
	other   bool
}

func newNetwork(env *Env) *network {
	n := &network{env: env, buf: bounded.New(MaxNetworkLen)}
	n.str.Out = n.buf
	return n
}

func (n *network) Next(tok jsonstream.Token) (bool, error) {
	if !n.started {
		n.started = true
		n.other = tok.Kind != jsonstream.StringBegin
	}
	if n.other {
		return n.skip.Next(tok)
	}
	done, err := n.str.Next(tok)
	if err != nil || !done {
		return done, err
	}
	if n.buf.Dropped() {
		return true, n.env.prompt("On Network", "network cannot be displayed on Ledger")
	}
	return true, n.env.prompt("On Network", "%s", n.buf.Bytes())
}

// dropped reports whether the id was too long to show.
func (n *network) dropped() bool { return n.buf.Dropped() }

func (n *network) Reset() {
	n.str.Reset()
	n.skip.Reset()
	n.buf.Reset()
	n.started = false
	n.other = false
}

const (
	cmdNonce uint8 = 1 << iota
	cmdMeta
	cmdPayload
	cmdSigners
	cmdNetworkID
)

// command is the top level object of a JSON transaction. Members are
// processed in document order; the coverage warning comes last.
type command struct {
	env     *Env
	walker  jsonstream.ObjectWalker
	nonce   jsonstream.Skip
	meta    *meta
	payload *skipFields
	signers *signerList
	network *network
	seen    uint8
	// done is set once the closing brace has been seen.
	done bool
}

func newCommand(env *Env) *command {
	return &command{
		env:     env,
		meta:    newMeta(env),
		payload: newPayload(),
		signers: newSignerList(env),
		network: newNetwork(env),
	}
}

// Next feeds one token. Tokens after the end of the command are rejected.
func (c *command) Next(tok jsonstream.Token) error {
	if c.done {
		return errTrailingData
	}
	done, err := c.walker.Next(tok, c)
	if err != nil || !done {
		return err
	}
	c.done = true
	return c.warn()
}

func (c *command) Member(key []byte) (jsonstream.Interp, error) {
	var bit uint8
	var v jsonstream.Interp
	switch string(key) {
	case "nonce":
		bit, v = cmdNonce, &c.nonce
	case "meta":
		bit, v = cmdMeta, c.meta
	case "payload":
		bit, v = cmdPayload, c.payload
	case "signers":
		bit, v = cmdSigners, c.signers
	case "networkId":
		bit, v = cmdNetworkID, c.network
	default:
		return nil, fmt.Errorf("%w: command field %q", errUnknownField, key)
	}
	return v, markField(&c.seen, bit, key)
}

func (c *command) MemberDone() error { return nil }

// Coverage is the classification of all signers. A command without a
// signers field is unscoped.
func (c *command) Coverage() Coverage {
	if c.seen&cmdSigners == 0 {
		return NoCaps
	}
	cov := c.signers.coverage.Value()
	if c.network.dropped() {
		CoverageMonoid.Combine(&cov, HasFallback)
	}
	return cov
}

func (c *command) warn() error {
	cov := c.Coverage()
	c.env.logger().Debug("Command reviewed", "coverage", cov, "signers", c.signers.coverage.Count())
	switch cov {
	case Full:
		return nil
	case HasFallback:
		return c.env.prompt("WARNING", "Transaction too large for Ledger to display.  PROCEED WITH GREAT CAUTION.  Do you want to continue?")
	}
	return c.env.prompt("WARNING", "UNSAFE TRANSACTION. This transaction's code was not recognized and does not limit capabilities for all signers. Signing this transaction may make arbitrary actions on the chain including loss of all funds.")
}

func (c *command) Reset() {
	c.walker.Reset()
	c.nonce.Reset()
	c.meta.Reset()
	c.payload.Reset()
	c.signers.Reset()
	c.network.Reset()
	c.seen = 0
	c.done = false
}
