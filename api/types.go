// Package api is the host side client of the signing device.
//
// The client handles:
//   - Sending raw APDU packets to a device over HTTP (Client)
//   - Splitting payloads into packets and decoding status words (App)
//   - Checking a JSON command against the command schema before it is sent
//
// # Usage
//
// Connect to a device served by the serve command:
//
//	app := api.NewApp(api.NewClient("http://127.0.0.1:9999", &http.Client{}))
//	pub, err := app.GetPublicKey(ctx, path)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Sign a command exactly as it will be submitted to the chain:
//
//	sig, err := app.SignTransaction(ctx, commandJSON, path)
package api

import (
	"errors"
	"fmt"

	"github.com/anchorageoss/visualsign-kadena/apdu"
)

// ErrStatus is matched by every StatusError.
var ErrStatus = errors.New("device returned an error status")

// StatusError reports a response with a status other than OK.
type StatusError struct {
	Ins    apdu.Instruction
	Status apdu.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: device returned %s (0x%04x)", e.Ins, e.Status, uint16(e.Status))
}

// Is matches ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Version is the reply of GetVersion.
type Version struct {
	Major uint8  `json:"major"`
	Minor uint8  `json:"minor"`
	Patch uint8  `json:"patch"`
	Name  string `json:"name"`
}

func (v Version) String() string {
	return fmt.Sprintf("%s %d.%d.%d", v.Name, v.Major, v.Minor, v.Patch)
}

// TransferResult is the reply of MakeTransferTx.
type TransferResult struct {
	Signature []byte
	PublicKey []byte
}
