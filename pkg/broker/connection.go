// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package broker implements the connection/event loop that drives the
// wire protocol, schema registry, and subscription matcher under
// concurrent TCP I/O: C7 (Connection), C8 (the event loop/dispatcher)
// and C9 (per-packet handlers).
package broker

import (
	"net"

	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/subscription"
	"github.com/fluxpoint-io/broker/pkg/wire"
)

// State is a Connection's lifecycle stage.
type State int

const (
	StateIdle State = iota
	StateActive
	StateClosed
)

// Connection is per-client state: the TCP stream, its subscription
// set, and the last schema fragment it submitted. Only the event loop
// goroutine ever reads or writes a Connection's fields; the reader
// goroutine (see listen) touches only the net.Conn's read half and the
// event sink, never Connection state directly — this is what lets C8
// get away without any lock on broker state.
type Connection struct {
	ID        wire.ConnectionID
	PeerAddr  string
	conn      net.Conn
	State     State
	Subs      *subscription.Set
	RawSchema string // empty until a RegisterSchema has been received
	HasSchema bool
}

// newConnection wraps an accepted net.Conn. The connection starts
// Active: there is no handshake at this layer, so "accepted" and
// "active" coincide.
func newConnection(id wire.ConnectionID, conn net.Conn) *Connection {
	return &Connection{
		ID:       id,
		PeerAddr: conn.RemoteAddr().String(),
		conn:     conn,
		State:    StateActive,
		Subs:     subscription.New(),
	}
}

// listen spawns the reader goroutine for this connection: it reads one
// Packet at a time off the wire and emits events onto sink until a
// terminal error or EOF. listen returns immediately; the reader runs
// in the background for the connection's lifetime.
func (c *Connection) listen(sink chan<- Event) {
	go func() {
		for {
			pkt, err := wire.ReadPacket(c.conn)
			if err != nil {
				sink <- Event{Kind: EventConnError, ConnID: c.ID, Err: err}
				return
			}
			sink <- Event{Kind: EventPacket, ConnID: c.ID, Packet: pkt}
		}
	}()
}

// writePacket serializes and writes one packet to the connection's
// write half. Errors are returned to the caller (a handler), which
// translates a failure into a synthetic ConnectionError for this
// connection; writePacket itself never retries or buffers.
func (c *Connection) writePacket(p wire.Packet) error {
	return wire.WritePacket(c.conn, p)
}

// sendOk is a convenience wrapper around writePacket(Ok). Failures are
// logged, not propagated — matching the source's send_ok/send_err,
// which are fire-and-forget from the handler's point of view; the
// reader goroutine will observe the same broken connection and emit
// its own ConnectionError shortly after.
func (c *Connection) sendOk() {
	if err := c.writePacket(wire.NewOk()); err != nil {
		applog.Warnf("broker: write Ok to %s failed: %v", c.PeerAddr, err)
	}
}

func (c *Connection) sendErr(code, message string) {
	if err := c.writePacket(wire.NewError(code, message)); err != nil {
		applog.Warnf("broker: write Error to %s failed: %v", c.PeerAddr, err)
	}
}

func (c *Connection) close() {
	c.State = StateClosed
	c.conn.Close()
}
