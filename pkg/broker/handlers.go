// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broker

import (
	"context"

	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/wire"
)

// handleAccept registers a newly accepted connection, starts its
// reader goroutine, and adds it to the connection table.
func (b *Broker) handleAccept(conn *Connection) {
	b.conns[conn.ID] = conn
	conn.listen(b.events)
	applog.Infof("broker: accepted connection %s from %s", conn.ID, conn.PeerAddr)
}

// handlePacket applies C9's per-packet policy for one already-parsed
// packet from connID.
func (b *Broker) handlePacket(connID wire.ConnectionID, pkt wire.Packet) {
	conn, ok := b.conns[connID]
	if !ok {
		return // connection already removed between read and dispatch
	}

	switch pkt.Tag {
	case wire.PacketSubscribe:
		b.handleSubscribe(conn, pkt)
	case wire.PacketRegisterSchema:
		b.handleRegisterSchema(conn, pkt)
	case wire.PacketUpdate:
		b.handleUpdate(conn, pkt)
	case wire.PacketError:
		// The client is aborting; synthesize a terminal ConnectionError
		// for its own connection.
		b.handleConnError(connID, errClientAborted)
	case wire.PacketList:
		conn.sendErr(wire.ErrCodeList, "not implemented")
	case wire.PacketOk:
		// No broker-side effect; Ok from a client is only ever a reply
		// to something the broker itself doesn't send requests for.
	}
}

func (b *Broker) handleSubscribe(conn *Connection, pkt wire.Packet) {
	if err := conn.Subs.Insert(pkt.Key.String()); err != nil {
		conn.sendErr(wire.ErrCodeSubscription, err.Error())
		return
	}
	conn.sendOk()
}

// handleRegisterSchema stores conn's fragment, then rebuilds the
// global schema from every connection's fragment (not just conn's) —
// the "all connections" interpretation documented in SPEC_FULL.md §9.
func (b *Broker) handleRegisterSchema(conn *Connection, pkt wire.Packet) {
	conn.RawSchema = pkt.Value.AsString()
	conn.HasSchema = true

	var fragments []string
	for _, c := range b.conns {
		if c.HasSchema {
			fragments = append(fragments, c.RawSchema)
		}
	}

	if err := b.registry.Build(fragments); err != nil {
		conn.sendErr(wire.ErrCodeSchema, err.Error())
		return
	}
	conn.sendOk()
}

// handleUpdate validates the update against the current schema,
// persists it, replies Ok to the originator, and then (per the
// documented ordering choice) emits a PointUpdate event for fan-out.
func (b *Broker) handleUpdate(conn *Connection, pkt wire.Packet) {
	fullName := pkt.Key.String()

	point, ok := b.registry.Lookup(fullName)
	if !ok {
		conn.sendErr(wire.ErrCodeUpdate, "invalid point")
		b.rejectUpdate("unknown_point")
		return
	}
	if !point.HasType(wire.PointTypeOf(pkt.Value)) {
		conn.sendErr(wire.ErrCodeUpdate, "invalid point-type")
		b.rejectUpdate("type_mismatch")
		return
	}

	encoded, err := encodeValue(pkt.Value)
	if err != nil {
		conn.sendErr(wire.ErrCodeUpdate, err.Error())
		b.rejectUpdate("encode_error")
		return
	}

	if err := b.store.StoreValue(context.Background(), fullName, encoded); err != nil {
		conn.sendErr(wire.ErrCodeUpdate, err.Error())
		b.rejectUpdate("store_error")
		return
	}
	if b.metrics != nil {
		b.metrics.UpdatesAccepted.Inc()
	}

	conn.sendOk()

	b.events <- Event{
		Kind:      EventPointUpdate,
		ConnID:    conn.ID,
		PointName: fullName,
		Value:     pkt.Value,
	}
}

// handleExternalUpdate runs a bridged update (pkg/natsbridge) through
// the same validation and persistence as handleUpdate, minus the Ok
// reply: there is no originating connection to reply to. A rejection
// is logged and dropped rather than surfaced to any client.
func (b *Broker) handleExternalUpdate(fullName string, value wire.Value) {
	point, ok := b.registry.Lookup(fullName)
	if !ok {
		applog.Warnf("broker: external update to unknown point %q dropped", fullName)
		b.rejectUpdate("unknown_point")
		return
	}
	if !point.HasType(wire.PointTypeOf(value)) {
		applog.Warnf("broker: external update to %q has wrong point-type, dropped", fullName)
		b.rejectUpdate("type_mismatch")
		return
	}

	encoded, err := encodeValue(value)
	if err != nil {
		applog.Errorf("broker: encoding external update to %q: %v", fullName, err)
		b.rejectUpdate("encode_error")
		return
	}

	if err := b.store.StoreValue(context.Background(), fullName, encoded); err != nil {
		applog.Errorf("broker: storing external update to %q: %v", fullName, err)
		b.rejectUpdate("store_error")
		return
	}
	if b.metrics != nil {
		b.metrics.UpdatesAccepted.Inc()
	}

	b.handlePointUpdate(fullName, value)
}

func (b *Broker) rejectUpdate(reason string) {
	if b.metrics != nil {
		b.metrics.UpdatesRejected.WithLabelValues(reason).Inc()
	}
}

// handlePointUpdate fans an accepted update out to every connection
// whose subscription set matches fullName, including the originator if
// its own subscriptions match (no self-exclusion). A write failure to
// one subscriber demotes to a synthetic ConnectionError for that
// connection only; it never aborts the fan-out to the rest.
func (b *Broker) handlePointUpdate(fullName string, value wire.Value) {
	key, err := wire.NewStringKey(fullName)
	if err != nil {
		applog.Errorf("broker: fan-out: invalid point name %q: %v", fullName, err)
		return
	}
	pkt := wire.NewUpdate(key, value)

	for id, conn := range b.conns {
		if !conn.Subs.Matches(fullName) {
			continue
		}
		if err := conn.writePacket(pkt); err != nil {
			if b.metrics != nil {
				b.metrics.FanOutFailures.Inc()
			}
			b.handleConnError(id, err)
			continue
		}
		if b.metrics != nil {
			b.metrics.FanOutDeliveries.Inc()
		}
	}
}

var errClientAborted = &connError{"client sent Error packet"}

type connError struct{ msg string }

func (e *connError) Error() string { return e.msg }

// handleConnError removes connID's connection from the table. Every
// ConnectionError this implementation produces — real reader I/O
// failures, a client's own Error packet, or a fan-out write failure —
// already reflects a connection that cannot make further progress, so
// there is no "log and continue" branch here: removal is always the
// right response once this event fires. (The reader goroutine itself
// has already exited by the time a real I/O failure reaches here.)
func (b *Broker) handleConnError(connID wire.ConnectionID, err error) {
	conn, ok := b.conns[connID]
	if !ok {
		return
	}
	applog.Infof("broker: closing connection %s: %v", conn.PeerAddr, err)
	conn.close()
	delete(b.conns, connID)
}
