package kadena

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/visualsign-kadena/crypto"
	"github.com/anchorageoss/visualsign-kadena/jsonstream"
	"github.com/anchorageoss/visualsign-kadena/parser"
	"github.com/anchorageoss/visualsign-kadena/testdata"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

// Addresses derived from testdata.TestSeedHex.
const (
	address00    = "83a5c9e49e3652b2548bc955ed699e5dfbc357e51b512dbc3b435ef38f16d59e" // 0'/0'
	address44626 = "07ae36cb8ab6721216fd89145ef2772e5ef07c88baa555eab4a1d210f3dda71c" // 44'/626'/0'
)

func testSeed(t *testing.T) crypto.Seed {
	t.Helper()
	seed, err := hex.DecodeString(testdata.TestSeedHex)
	require.NoError(t, err)
	return crypto.Seed(seed)
}

func testEnv(t *testing.T, display ui.Display) *Env {
	t.Helper()
	return &Env{
		UI:   ui.NewScroller(display),
		Keys: testSeed(t),
		Log:  log.NewLogger(log.DiscardHandler()),
	}
}

// parsePath turns "44'/626'/0" into path components.
func parsePath(t *testing.T, s string) []uint32 {
	t.Helper()
	var out []uint32
	for _, part := range strings.Split(s, "/") {
		hardened := strings.HasSuffix(part, "'")
		n, err := strconv.ParseUint(strings.TrimSuffix(part, "'"), 10, 31)
		require.NoError(t, err)
		c := uint32(n)
		if hardened {
			c |= parser.HardenedOffset
		}
		out = append(out, c)
	}
	return out
}

func encodePath(path []uint32) []byte {
	out := []byte{byte(len(path))}
	for _, c := range path {
		out = binary.LittleEndian.AppendUint32(out, c)
	}
	return out
}

func signPayload(tx []byte, path []uint32) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(tx)))
	out = append(out, tx...)
	return append(out, encodePath(path)...)
}

// drive feeds payload to e in packets of step bytes, the way the device
// does, and fails the test on a protocol violation.
func drive(t *testing.T, e Engine, payload []byte, step int) error {
	t.Helper()
	for len(payload) > 0 {
		n := min(step, len(payload))
		rest, err := e.Parse(payload[:n])
		payload = payload[n:]
		if errors.Is(err, parser.ErrNeedMore) {
			require.Empty(t, rest)
			continue
		}
		if err != nil {
			return err
		}
		require.Empty(t, rest, "engine left bytes in the packet")
		require.Empty(t, payload, "engine finished before the last packet")
		return nil
	}
	return parser.ErrNeedMore
}

// feedJSON runs a whole JSON text through v and requires it to complete.
func feedJSON(t *testing.T, v jsonstream.Interp, text string) {
	t.Helper()
	var lexer jsonstream.Lexer
	done := false
	emit := func(tok jsonstream.Token) error {
		require.False(t, done, "token after the end of the value")
		var err error
		done, err = v.Next(tok)
		return err
	}
	require.NoError(t, lexer.Feed([]byte(text), emit))
	require.NoError(t, lexer.Close(emit))
	require.True(t, done)
}

func prompt(title, text string) ui.Event { return ui.Event{Title: title, Text: text} }

func final(question string) ui.Event { return ui.Event{Title: question, Final: true} }
