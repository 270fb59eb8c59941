package kadena

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/parser"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

const recipient = "4c310df6224d674d80463a29cde00cb0ecfb71e0cfdce494243a61b8ea572dfd"

type transferFields struct {
	kind TransferKind

	recipient, recipientChain, network, amount, namespace, module string

	gasPrice, gasLimit, creationTime, chainID, nonce, ttl string
}

func defaultTransfer() transferFields {
	return transferFields{
		kind:           KindTransfer,
		recipient:      recipient,
		recipientChain: "0",
		network:        "mainnet01",
		amount:         "11.0",
		gasPrice:       "1.0e-6",
		gasLimit:       "600",
		creationTime:   "1634009195",
		chainID:        "0",
		nonce:          "2021-10-12T03:27:35.231Z",
		ttl:            "900",
	}
}

func (f transferFields) payload(path []uint32) []byte {
	out := append(encodePath(path), byte(f.kind))
	for _, s := range []string{
		f.recipient, f.recipientChain, f.network, f.amount, f.namespace, f.module,
		f.gasPrice, f.gasLimit, f.creationTime, f.chainID, f.nonce, f.ttl,
	} {
		out = append(out, byte(len(s)))
		out = append(out, s...)
	}
	return out
}

func TestTransferMatchesSignedCommand(t *testing.T) {
	path := parsePath(t, "0'/0'")
	const pkh = address00
	want := `{"networkId":"mainnet01",` +
		`"payload":{"exec":{"data":{},"code":"(coin.transfer \"k:` + pkh + `\" \"k:` + recipient + `\" 11.0)"}},` +
		`"signers":[{"pubKey":"` + pkh + `","clist":[{"args":["k:` + pkh + `","k:` + recipient + `",11.0],"name":"coin.TRANSFER"},{"args":[],"name":"coin.GAS"}]}],` +
		`"meta":{"creationTime":1634009195,"ttl":900,"gasLimit":600,"chainId":"0","gasPrice":1.0e-6,"sender":"k:` + pkh + `"},` +
		`"nonce":"2021-10-12T03:27:35.231Z"}`

	for _, step := range []int{1, 9, 230} {
		rec := ui.NewRecorder()
		e := NewTransferEngine(testEnv(t, rec))
		require.NoError(t, drive(t, e, defaultTransfer().payload(path), step))

		resp := e.Response()
		require.Len(t, resp, crypto.SignatureSize+crypto.PublicKeySize)
		sig, pub := resp[:crypto.SignatureSize], resp[crypto.SignatureSize:]
		assert.Equal(t, pkh, crypto.Address(pub))
		assert.True(t, crypto.VerifyTransaction(pub, []byte(want), sig), "step %d", step)

		assert.Equal(t, []ui.Event{
			prompt("Token:", "KDA"),
			prompt("Transfer", "11.0 from k:"+pkh+" to k:"+recipient+" on network mainnet01"),
			prompt("Paying Gas", "at most 600 at price 1.0e-6"),
			final("Sign Transaction?"),
		}, rec.Events())
	}

	// The built command is one the JSON engine accepts and signs identically.
	rec := ui.NewRecorder()
	se := NewSignEngine(testEnv(t, rec))
	require.NoError(t, drive(t, se, signPayload([]byte(want), path), 230))
	assert.Equal(t, Full, se.Coverage())
	assert.Contains(t, rec.Events(), prompt("Transfer 1", `11.0 from "k:`+pkh+`" to "k:`+recipient+`"`))

	te := NewTransferEngine(testEnv(t, ui.NewRecorder()))
	require.NoError(t, drive(t, te, defaultTransfer().payload(path), 230))
	assert.Equal(t, se.Response(), te.Response()[:crypto.SignatureSize])
}

func TestTransferCreateAndCrossChain(t *testing.T) {
	path := parsePath(t, "44'/626'/0'")
	const pkh = address44626

	tests := []struct {
		name     string
		fields   func(f *transferFields)
		command  string
		token    string
		transfer string
	}{
		{
			name: "create",
			fields: func(f *transferFields) {
				f.kind = KindTransferCreate
			},
			command: `{"networkId":"mainnet01",` +
				`"payload":{"exec":{"data":{"ks":{"pred":"keys-all","keys":["` + recipient + `"]}},"code":"(coin.transfer-create \"k:` + pkh + `\" \"k:` + recipient + `\" (read-keyset \"ks\") 11.0)"}},` +
				`"signers":[{"pubKey":"` + pkh + `","clist":[{"args":["k:` + pkh + `","k:` + recipient + `",11.0],"name":"coin.TRANSFER"},{"args":[],"name":"coin.GAS"}]}],` +
				`"meta":{"creationTime":1634009195,"ttl":900,"gasLimit":600,"chainId":"0","gasPrice":1.0e-6,"sender":"k:` + pkh + `"},` +
				`"nonce":"2021-10-12T03:27:35.231Z"}`,
			token:    "KDA",
			transfer: "11.0 from k:" + pkh + " to k:" + recipient + " on network mainnet01",
		},
		{
			name: "cross-chain token",
			fields: func(f *transferFields) {
				f.kind = KindCrossChain
				f.recipientChain = "12"
				f.network = "testnet04"
				f.namespace = "free"
				f.module = "mytoken"
				f.gasPrice = "0.00001"
			},
			command: `{"networkId":"testnet04",` +
				`"payload":{"exec":{"data":{"ks":{"pred":"keys-all","keys":["` + recipient + `"]}},"code":"(free.mytoken.transfer-crosschain \"k:` + pkh + `\" \"k:` + recipient + `\" (read-keyset \"ks\") \"12\" 11.0)"}},` +
				`"signers":[{"pubKey":"` + pkh + `","clist":[{"args":["k:` + pkh + `","k:` + recipient + `",11.0,"12"],"name":"free.mytoken.TRANSFER_XCHAIN"},{"args":[],"name":"coin.GAS"}]}],` +
				`"meta":{"creationTime":1634009195,"ttl":900,"gasLimit":600,"chainId":"0","gasPrice":0.00001,"sender":"k:` + pkh + `"},` +
				`"nonce":"2021-10-12T03:27:35.231Z"}`,
			token:    "free.mytoken",
			transfer: "Cross-chain 11.0 from k:" + pkh + " to k:" + recipient + " to chain 12 on network testnet04",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultTransfer()
			tt.fields(&f)
			rec := ui.NewRecorder()
			e := NewTransferEngine(testEnv(t, rec))
			require.NoError(t, drive(t, e, f.payload(path), 230))

			resp := e.Response()
			pub := resp[crypto.SignatureSize:]
			assert.True(t, crypto.VerifyTransaction(pub, []byte(tt.command), resp[:crypto.SignatureSize]))

			events := rec.Events()
			require.Len(t, events, 4)
			assert.Equal(t, prompt("Token:", tt.token), events[0])
			assert.Equal(t, prompt("Transfer", tt.transfer), events[1])
		})
	}
}

func TestTransferRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *transferFields)
	}{
		{"unknown kind", func(f *transferFields) { f.kind = 3 }},
		{"recipient not hex", func(f *transferFields) { f.recipient = strings.Repeat("z", RecipientSize) }},
		{"recipient too short", func(f *transferFields) { f.recipient = recipient[:62] }},
		{"empty network", func(f *transferFields) { f.network = "" }},
		{"quote in network", func(f *transferFields) { f.network = `main"net` }},
		{"two decimal points", func(f *transferFields) { f.amount = "1.2.3" }},
		{"negative amount", func(f *transferFields) { f.amount = "-1" }},
		{"recipient chain not a number", func(f *transferFields) { f.recipientChain = "x" }},
		{"namespace without module", func(f *transferFields) { f.namespace = "free" }},
		{"backslash in module", func(f *transferFields) { f.namespace, f.module = "free", `a\b` }},
		{"gas price exponent without point", func(f *transferFields) { f.gasPrice = "1e-6" }},
		{"gas price dangling exponent", func(f *transferFields) { f.gasPrice = "1.0e" }},
		{"gas price positive exponent", func(f *transferFields) { f.gasPrice = "1.0e6" }},
		{"empty gas limit", func(f *transferFields) { f.gasLimit = "" }},
		{"chain id not a number", func(f *transferFields) { f.chainID = "a" }},
		{"creation time not a number", func(f *transferFields) { f.creationTime = "12:00" }},
		{"control byte in nonce", func(f *transferFields) { f.nonce = "a\nb" }},
		{"ttl not a number", func(f *transferFields) { f.ttl = "1h" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultTransfer()
			tt.modify(&f)
			rec := ui.NewRecorder()
			e := NewTransferEngine(testEnv(t, rec))
			err := drive(t, e, f.payload([]uint32{0, 0}), 230)
			assert.ErrorIs(t, err, parser.ErrRejected)
			assert.ErrorIs(t, err, ErrInvalidField)
			assert.Empty(t, rec.Events())
			assert.Empty(t, e.Response())
		})
	}
}

func TestTransferRejectsOversizedField(t *testing.T) {
	f := defaultTransfer()
	f.amount = strings.Repeat("1", AmountSize+1)
	e := NewTransferEngine(testEnv(t, ui.NewRecorder()))
	err := drive(t, e, f.payload([]uint32{0}), 230)
	assert.ErrorIs(t, err, parser.ErrRejected)
	assert.NotErrorIs(t, err, ErrInvalidField)
}

func TestTransferDeclined(t *testing.T) {
	for i := 0; i < 4; i++ {
		rec := ui.NewRecorder()
		rec.RejectAt = i
		e := NewTransferEngine(testEnv(t, rec))
		err := drive(t, e, defaultTransfer().payload([]uint32{0}), 230)
		assert.ErrorIs(t, err, ui.ErrRejected)
		assert.Empty(t, e.Response())
		assert.Nil(t, e.key, "key kept after prompt %d", i)
	}
}

func TestTransferKindString(t *testing.T) {
	assert.Equal(t, "transfer-crosschain", KindCrossChain.String())
	assert.Equal(t, "kind(7)", TransferKind(7).String())
}
