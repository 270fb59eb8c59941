package device

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/visualsign-kadena/apdu"
	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/settings"
	"github.com/anchorageoss/visualsign-kadena/testdata"
	"github.com/anchorageoss/visualsign-kadena/transport"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

var path00 = []uint32{0x80000000, 0x80000000}

func newTestDevice(t *testing.T, blind bool) (*Device, *ui.Recorder, *settings.MemoryStore) {
	t.Helper()
	seed, err := hex.DecodeString(testdata.TestSeedHex)
	require.NoError(t, err)
	rec := ui.NewRecorder()
	store := settings.NewMemoryStore(settings.Settings{BlindSigning: blind})
	d := New(Config{
		Keys:     crypto.Seed(seed),
		Display:  rec,
		Settings: store,
		Log:      log.NewLogger(log.DiscardHandler()),
	})
	return d, rec, store
}

// send splits payload into packets and returns every response.
func send(t *testing.T, d *Device, ins apdu.Instruction, payload []byte) []apdu.Response {
	t.Helper()
	var out []apdu.Response
	for _, cmd := range apdu.Chunk(ins, payload) {
		raw, err := cmd.MarshalBinary()
		require.NoError(t, err)
		out = append(out, d.HandleRaw(raw))
	}
	return out
}

func last(rs []apdu.Response) apdu.Response { return rs[len(rs)-1] }

func TestGetVersion(t *testing.T) {
	d, _, _ := newTestDevice(t, false)

	r := last(send(t, d, apdu.InsGetVersion, nil))
	require.Equal(t, apdu.StatusOK, r.Status)
	require.Equal(t, append([]byte{VersionMajor, VersionMinor, VersionPatch}, "Kadena"...), r.Data)

	r = last(send(t, d, apdu.InsGetVersionStr, nil))
	require.Equal(t, apdu.StatusOK, r.Status)
	require.Equal(t, "Kadena 0.2.2", string(r.Data))
}

func TestSignAcrossPackets(t *testing.T) {
	d, rec, _ := newTestDevice(t, false)
	tx := testdata.Lookup("multiple-transfers")
	payload, err := apdu.SignPayload(tx.JSON(), path00)
	require.NoError(t, err)

	rs := send(t, d, apdu.InsSign, payload)
	require.Greater(t, len(rs), 2)
	for _, r := range rs[:len(rs)-1] {
		assert.Equal(t, apdu.StatusOK, r.Status)
		assert.Empty(t, r.Data)
	}
	r := last(rs)
	require.Equal(t, apdu.StatusOK, r.Status)
	require.Len(t, r.Data, crypto.SignatureSize)
	assert.False(t, d.Busy())

	pub, err := crypto.Seed(mustHex(t, testdata.TestSeedHex)).PublicKeyAt(path00)
	require.NoError(t, err)
	assert.True(t, crypto.VerifyTransaction(pub, tx.JSON(), r.Data))

	events := rec.Events()
	assert.Equal(t, "Signing", events[0].Title)
	assert.Equal(t, ui.Event{Title: "Sign Transaction?", Final: true}, events[len(events)-1])
}

func TestSignRejectedResets(t *testing.T) {
	d, rec, _ := newTestDevice(t, false)
	tx := testdata.Lookup("simple-transfer")
	payload, err := apdu.SignPayload(tx.JSON(), path00)
	require.NoError(t, err)

	r := last(send(t, d, apdu.InsSign, payload))
	require.Equal(t, apdu.StatusOK, r.Status)
	rec.RejectAt = len(rec.Events()) - 1
	rec.Reset()

	rs := send(t, d, apdu.InsSign, payload)
	r = last(rs)
	assert.Equal(t, apdu.StatusUnknown, r.Status)
	assert.Empty(t, r.Data)
	assert.False(t, d.Busy())
	for _, r := range rs[:len(rs)-1] {
		assert.Equal(t, apdu.StatusOK, r.Status)
	}

	rec.RejectAt = -1
	rec.Reset()
	r = last(send(t, d, apdu.InsSign, payload))
	require.Equal(t, apdu.StatusOK, r.Status)
	require.Len(t, r.Data, crypto.SignatureSize)
}

func TestSignHashGate(t *testing.T) {
	hash := crypto.HashBytes([]byte("command"))
	payload, err := apdu.SignHashPayload(hash, path00)
	require.NoError(t, err)

	d, rec, store := newTestDevice(t, false)
	r := last(send(t, d, apdu.InsSignHash, payload))
	assert.Equal(t, apdu.StatusNotSupported, r.Status)
	assert.Empty(t, r.Data)
	assert.Equal(t, []ui.Event{{Title: "Blind Signing must", Text: "be enabled"}}, rec.Events())
	assert.False(t, d.Busy())

	// Declining the notice changes nothing.
	rec.Reset()
	rec.RejectAt = 0
	r = last(send(t, d, apdu.InsSignHash, payload))
	assert.Equal(t, apdu.StatusNotSupported, r.Status)
	assert.Len(t, rec.Events(), 1)

	rec.RejectAt = -1
	rec.Reset()
	require.NoError(t, store.Save(settings.Settings{BlindSigning: true}))
	r = last(send(t, d, apdu.InsSignHash, payload))
	require.Equal(t, apdu.StatusOK, r.Status)
	pub, err := crypto.Seed(mustHex(t, testdata.TestSeedHex)).PublicKeyAt(path00)
	require.NoError(t, err)
	assert.True(t, crypto.Verify(pub, hash, r.Data))
	assert.Equal(t, "WARNING", rec.Events()[0].Title)
}

func TestGetPublicKey(t *testing.T) {
	d, _, _ := newTestDevice(t, false)
	payload, err := apdu.GetPublicKeyPayload([]uint32{0x8000002c, 0x80000272, 0x80000000})
	require.NoError(t, err)

	r := last(send(t, d, apdu.InsGetPublicKey, payload))
	require.Equal(t, apdu.StatusOK, r.Status)
	require.Equal(t, byte(32), r.Data[0])
	assert.Equal(t, "07ae36cb8ab6721216fd89145ef2772e5ef07c88baa555eab4a1d210f3dda71c", hex.EncodeToString(r.Data[1:]))
}

func TestMakeTransferTx(t *testing.T) {
	d, rec, _ := newTestDevice(t, false)
	payload, err := apdu.TransferPayload(&apdu.Transfer{
		Kind:           0,
		Recipient:      "4c310df6224d674d80463a29cde00cb0ecfb71e0cfdce494243a61b8ea572dfd",
		RecipientChain: "0",
		Network:        "testnet04",
		Amount:         "1.5",
		GasPrice:       "0.00001",
		GasLimit:       "600",
		CreationTime:   "1634009195",
		ChainID:        "1",
		Nonce:          "n",
		TTL:            "600",
	}, path00)
	require.NoError(t, err)

	r := last(send(t, d, apdu.InsMakeTransferTx, payload))
	require.Equal(t, apdu.StatusOK, r.Status)
	require.Len(t, r.Data, crypto.SignatureSize+crypto.PublicKeySize)
	assert.Len(t, rec.Events(), 4)
}

func TestProtocolErrors(t *testing.T) {
	d, _, _ := newTestDevice(t, false)

	assert.Equal(t, apdu.StatusNothingReceived, d.HandleRaw(nil).Status)
	assert.Equal(t, apdu.StatusBadLen, d.HandleRaw([]byte{0, 2, 0}).Status)
	assert.Equal(t, apdu.StatusBadLen, d.HandleRaw([]byte{0, 2, 0, 0, 5, 1}).Status)
	assert.Equal(t, apdu.StatusBadCla, d.HandleRaw([]byte{0xe0, 2, 0, 0, 0}).Status)
	assert.Equal(t, apdu.StatusUnknown, d.HandleRaw([]byte{0, 0x42, 0, 0, 0}).Status)

	// Bytes left after a complete command.
	payload, err := apdu.GetPublicKeyPayload(path00)
	require.NoError(t, err)
	r := last(send(t, d, apdu.InsGetPublicKey, append(payload, 0)))
	assert.Equal(t, apdu.StatusUnknown, r.Status)
	assert.False(t, d.Busy())
}

func TestProtocolErrorsDiscardCommand(t *testing.T) {
	tx := testdata.Lookup("simple-transfer")
	payload, err := apdu.SignPayload(tx.JSON(), path00)
	require.NoError(t, err)
	first, err := apdu.Chunk(apdu.InsSign, payload)[0].MarshalBinary()
	require.NoError(t, err)

	badLen := append([]byte(nil), first...)
	badLen[4] = 3
	badCla := append([]byte(nil), first...)
	badCla[0] = 0xe0

	tests := []struct {
		name string
		raw  []byte
		want apdu.Status
	}{
		{name: "length mismatch", raw: badLen, want: apdu.StatusBadLen},
		{name: "short packet", raw: first[:3], want: apdu.StatusBadLen},
		{name: "bad class", raw: badCla, want: apdu.StatusBadCla},
		{name: "unknown instruction", raw: []byte{0, 0x42, 0, 0, 0}, want: apdu.StatusUnknown},
		{name: "empty packet", raw: nil, want: apdu.StatusNothingReceived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _ := newTestDevice(t, false)
			require.Equal(t, apdu.StatusOK, d.HandleRaw(first).Status)
			require.True(t, d.Busy())

			assert.Equal(t, tt.want, d.HandleRaw(tt.raw).Status)
			assert.False(t, d.Busy())

			// The rest of the command no longer belongs to anything.
			rs := send(t, d, apdu.InsSign, payload)
			r := last(rs)
			require.Equal(t, apdu.StatusOK, r.Status)
			require.Len(t, r.Data, crypto.SignatureSize)
		})
	}
}

func TestSignHashGateDiscardsCommand(t *testing.T) {
	d, rec, _ := newTestDevice(t, false)
	r := d.Handle(apdu.Command{Ins: apdu.InsSign, Data: binary.LittleEndian.AppendUint32(nil, 500)})
	require.Equal(t, apdu.StatusOK, r.Status)
	require.True(t, d.Busy())

	payload, err := apdu.SignHashPayload(crypto.HashBytes([]byte("command")), path00)
	require.NoError(t, err)
	r = last(send(t, d, apdu.InsSignHash, payload))
	assert.Equal(t, apdu.StatusNotSupported, r.Status)
	assert.False(t, d.Busy())
	assert.Equal(t, "Blind Signing must", rec.Events()[len(rec.Events())-1].Title)
}

func TestInstructionSwitchDiscardsCommand(t *testing.T) {
	d, _, _ := newTestDevice(t, false)

	// Only the length prefix of a sign command.
	r := d.Handle(apdu.Command{Ins: apdu.InsSign, Data: binary.LittleEndian.AppendUint32(nil, 500)})
	require.Equal(t, apdu.StatusOK, r.Status)
	require.True(t, d.Busy())
	require.Equal(t, []string{"Working...", "Cancel"}, d.Screens())

	payload, err := apdu.GetPublicKeyPayload(path00)
	require.NoError(t, err)
	r = last(send(t, d, apdu.InsGetPublicKey, payload))
	require.Equal(t, apdu.StatusOK, r.Status)
	assert.False(t, d.Busy())
}

func TestExit(t *testing.T) {
	d, _, _ := newTestDevice(t, false)
	r := last(send(t, d, apdu.InsExit, nil))
	assert.Equal(t, apdu.StatusOK, r.Status)
	assert.True(t, d.Exited())
}

func TestRunOverPipe(t *testing.T) {
	d, _, _ := newTestDevice(t, false)
	pipe := transport.NewPipe()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, pipe, nil) }()

	exchange := func(ins apdu.Instruction) apdu.Response {
		raw, err := apdu.Command{Ins: ins}.MarshalBinary()
		require.NoError(t, err)
		rawResp, err := pipe.Exchange(ctx, raw)
		require.NoError(t, err)
		var r apdu.Response
		require.NoError(t, r.UnmarshalBinary(rawResp))
		return r
	}

	assert.Equal(t, "Kadena 0.2.2", string(exchange(apdu.InsGetVersionStr).Data))
	assert.Equal(t, apdu.StatusOK, exchange(apdu.InsExit).Status)
	require.ErrorIs(t, <-done, ErrExit)
}

func TestRunStopsOnClosedTransport(t *testing.T) {
	d, _, _ := newTestDevice(t, false)
	pipe := transport.NewPipe()
	pipe.Close()
	err := d.Run(context.Background(), pipe, nil)
	require.ErrorIs(t, err, transport.ErrClosed)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
