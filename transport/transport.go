// Package transport carries raw APDU packets between a host and the device.
//
// The device side pulls one Exchange at a time with Transport.Next and
// answers it with Exchange.Reply. The host side sends a packet and waits for
// the answer through an Exchanger. Pipe connects the two in memory; Server
// exposes the device over HTTP.
package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrClosed is returned once a Pipe is closed.
var ErrClosed = errors.New("transport: closed")

// Exchange is one command waiting for its response.
type Exchange struct {
	// ID identifies the exchange in logs.
	ID      string
	Command []byte
	reply   chan []byte
}

// NewExchange wraps a raw command.
func NewExchange(command []byte) *Exchange {
	return &Exchange{ID: uuid.NewString(), Command: command, reply: make(chan []byte, 1)}
}

// Reply delivers the raw response. Only the first reply counts.
func (e *Exchange) Reply(response []byte) {
	select {
	case e.reply <- response:
	default:
	}
}

// Wait blocks until the response arrives.
func (e *Exchange) Wait(ctx context.Context) ([]byte, error) {
	select {
	case resp := <-e.reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Transport is the device side of a connection.
type Transport interface {
	// Next blocks until a command arrives.
	Next(ctx context.Context) (*Exchange, error)
}

// Exchanger is the host side of a connection.
type Exchanger interface {
	// Exchange sends a raw command and returns the raw response.
	Exchange(ctx context.Context, command []byte) ([]byte, error)
}

// Pipe is an in-memory connection. It implements both Transport and
// Exchanger.
type Pipe struct {
	ch     chan *Exchange
	closed chan struct{}
}

// NewPipe creates an open pipe.
func NewPipe() *Pipe {
	return &Pipe{ch: make(chan *Exchange), closed: make(chan struct{})}
}

// Exchange implements Exchanger.
func (p *Pipe) Exchange(ctx context.Context, command []byte) ([]byte, error) {
	ex := NewExchange(command)
	select {
	case p.ch <- ex:
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-ex.reply:
		return resp, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Next implements Transport.
func (p *Pipe) Next(ctx context.Context) (*Exchange, error) {
	select {
	case ex := <-p.ch:
		return ex, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close makes pending and future calls fail with ErrClosed. It must be
// called at most once.
func (p *Pipe) Close() {
	close(p.closed)
}
