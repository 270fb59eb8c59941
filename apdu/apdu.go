// Package apdu defines the packet format exchanged between the host and the
// signing device.
//
// A command is the classic ISO 7816 short form: CLA, INS, P1, P2, a one-byte
// data length and the data. A response is the reply data followed by a
// big-endian status word.
//
// # Chunking
//
// Payloads larger than MaxChunk are split by the host into consecutive
// commands with the same instruction. The device answers every intermediate
// chunk with StatusOK and no data; the reply data only arrives with the last
// chunk.
package apdu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CLA is the class byte of every command.
const CLA byte = 0x00

// HeaderSize is the length of a command header including the data length.
const HeaderSize = 5

// MaxChunk is the largest data field the host sends in one command.
const MaxChunk = 230

// Instruction selects the operation of a command.
type Instruction byte

const (
	InsGetVersion     Instruction = 0x00 // version bytes and app name
	InsGetPublicKey   Instruction = 0x02 // public key at a BIP32 path
	InsSign           Instruction = 0x03 // review and sign a JSON command
	InsSignHash       Instruction = 0x04 // blind-sign a 32-byte hash
	InsMakeTransferTx Instruction = 0x10 // build and sign a coin transfer
	InsGetVersionStr  Instruction = 0xfe // version as text
	InsExit           Instruction = 0xff // quit the app
)

func (i Instruction) String() string {
	switch i {
	case InsGetVersion:
		return "GetVersion"
	case InsGetPublicKey:
		return "GetPublicKey"
	case InsSign:
		return "Sign"
	case InsSignHash:
		return "SignHash"
	case InsMakeTransferTx:
		return "MakeTransferTx"
	case InsGetVersionStr:
		return "GetVersionStr"
	case InsExit:
		return "Exit"
	}
	return fmt.Sprintf("Instruction(0x%02x)", byte(i))
}

// Status is the two-byte status word closing every response.
type Status uint16

const (
	StatusOK              Status = 0x9000
	StatusNothingReceived Status = 0x6982
	StatusBadCla          Status = 0x6e00
	StatusBadLen          Status = 0x6e01
	StatusUserCancelled   Status = 0x6e02
	StatusUnknown         Status = 0x6d00
	StatusNotSupported    Status = 0x6808
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNothingReceived:
		return "NothingReceived"
	case StatusBadCla:
		return "BadCla"
	case StatusBadLen:
		return "BadLen"
	case StatusUserCancelled:
		return "UserCancelled"
	case StatusUnknown:
		return "Unknown"
	case StatusNotSupported:
		return "NotSupported"
	}
	return fmt.Sprintf("Status(0x%04x)", uint16(s))
}

var (
	// ErrShortCommand is returned for fewer bytes than a command header.
	ErrShortCommand = errors.New("apdu: command shorter than its header")
	// ErrLength is returned when the length byte disagrees with the data.
	ErrLength = errors.New("apdu: data length mismatch")
	// ErrShortResponse is returned for a response without a status word.
	ErrShortResponse = errors.New("apdu: response shorter than a status word")
)

// Command is one host to device packet.
type Command struct {
	Cla  byte
	Ins  Instruction
	P1   byte
	P2   byte
	Data []byte
}

// MarshalBinary encodes the command. Data longer than 255 bytes cannot be
// represented.
func (c Command) MarshalBinary() ([]byte, error) {
	if len(c.Data) > 0xff {
		return nil, fmt.Errorf("%w: %d data bytes", ErrLength, len(c.Data))
	}
	out := make([]byte, HeaderSize, HeaderSize+len(c.Data))
	out[0] = c.Cla
	out[1] = byte(c.Ins)
	out[2] = c.P1
	out[3] = c.P2
	out[4] = byte(len(c.Data))
	return append(out, c.Data...), nil
}

// UnmarshalBinary decodes a command. Data aliases raw.
func (c *Command) UnmarshalBinary(raw []byte) error {
	if len(raw) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrShortCommand, len(raw))
	}
	if int(raw[4]) != len(raw)-HeaderSize {
		return fmt.Errorf("%w: header says %d, got %d", ErrLength, raw[4], len(raw)-HeaderSize)
	}
	c.Cla = raw[0]
	c.Ins = Instruction(raw[1])
	c.P1 = raw[2]
	c.P2 = raw[3]
	c.Data = raw[HeaderSize:]
	return nil
}

// Response is one device to host packet.
type Response struct {
	Data   []byte
	Status Status
}

// MarshalBinary encodes the response.
func (r Response) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint16(append([]byte(nil), r.Data...), uint16(r.Status)), nil
}

// UnmarshalBinary decodes a response. Data aliases raw.
func (r *Response) UnmarshalBinary(raw []byte) error {
	if len(raw) < 2 {
		return fmt.Errorf("%w: %d bytes", ErrShortResponse, len(raw))
	}
	n := len(raw) - 2
	r.Data = raw[:n]
	r.Status = Status(binary.BigEndian.Uint16(raw[n:]))
	return nil
}

// Chunk splits payload into commands of at most MaxChunk data bytes. An
// empty payload still yields one command.
func Chunk(ins Instruction, payload []byte) []Command {
	var cmds []Command
	for {
		n := min(len(payload), MaxChunk)
		cmds = append(cmds, Command{Cla: CLA, Ins: ins, Data: payload[:n]})
		payload = payload[n:]
		if len(payload) == 0 {
			return cmds
		}
	}
}
