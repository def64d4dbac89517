// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broker

import (
	"net"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

// EventKind discriminates the Event union the loop multiplexes.
type EventKind int

const (
	// EventAccept carries a freshly accepted net.Conn from the listener.
	EventAccept EventKind = iota
	// EventPacket carries one parsed Packet from a connection's reader.
	EventPacket
	// EventConnError reports a reader's terminal I/O error, or a
	// synthetic failure (a fan-out write failure, or a client Error
	// packet) attributed to one connection.
	EventConnError
	// EventPointUpdate is emitted by the Update handler (after storing
	// the value) and fanned out to every connection whose subscription
	// matches PointName.
	EventPointUpdate
	// EventExternalUpdate carries an update from a source with no
	// broker connection of its own (pkg/natsbridge): it runs through
	// the same schema validation and store write as a client Update,
	// but has no originator to reply Ok to.
	EventExternalUpdate
)

// Event is the single type multiplexed by the broker's event loop. Any
// goroutine may send on the loop's channel; only the loop goroutine
// ever reads from it, so no field below needs its own synchronization.
type Event struct {
	Kind EventKind

	// EventAccept
	Conn net.Conn

	// EventPacket, EventConnError, EventPointUpdate (fan-out origin)
	ConnID wire.ConnectionID

	// EventPacket
	Packet wire.Packet

	// EventConnError
	Err error

	// EventPointUpdate, EventExternalUpdate
	PointName string
	Value     wire.Value
}
