// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broker

import (
	"context"

	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/metrics"
	"github.com/fluxpoint-io/broker/pkg/schema"
	"github.com/fluxpoint-io/broker/pkg/store"
	"github.com/fluxpoint-io/broker/pkg/wire"
)

// defaultEventBufferSize absorbs bursts without blocking producers; it
// does not change the ordering guarantees in SPEC_FULL.md §5, since
// the loop still drains the channel strictly one event at a time.
const defaultEventBufferSize = 256

// Broker is the single-threaded cooperative event loop (C8) plus the
// state it exclusively owns: the connection table, the schema
// registry, and the value store. Every handle* method here must only
// ever be called from Run's goroutine.
type Broker struct {
	registry *schema.Registry
	store    store.Store
	conns    map[wire.ConnectionID]*Connection
	events   chan Event
	metrics  *metrics.Metrics
}

// New constructs a Broker over the given store. The returned Broker
// does not start accepting connections until Run is called. It
// carries no metrics until SetMetrics is called, which is fine —
// every instrumentation point here is a guarded nil check.
func New(st store.Store) *Broker {
	return &Broker{
		registry: schema.NewRegistry(),
		store:    st,
		conns:    make(map[wire.ConnectionID]*Connection),
		events:   make(chan Event, defaultEventBufferSize),
	}
}

// Registry exposes the broker's schema registry for read-only
// inspection (e.g. by the observability HTTP endpoint).
func (b *Broker) Registry() *schema.Registry { return b.registry }

// SetMetrics attaches a metrics.Metrics the loop updates as it
// dispatches events. Must be called before Run. Passing nil (the
// default) turns instrumentation back off.
func (b *Broker) SetMetrics(m *metrics.Metrics) { b.metrics = m }

// PublishUpdate injects an externally-sourced update (from
// pkg/natsbridge) into the event loop. It runs through the same
// schema validation and store write as a client-originated Update
// (C9), just without an originating connection to reply Ok to. This
// makes Broker satisfy natsbridge.Sink without pkg/broker importing
// pkg/natsbridge.
func (b *Broker) PublishUpdate(fullName string, value wire.Value) {
	b.events <- Event{Kind: EventExternalUpdate, PointName: fullName, Value: value}
}

// Events returns the channel external producers (the listener's accept
// loop, a NATS bridge) send onto. It is exported so those producers can
// live outside this package while still feeding the one loop.
func (b *Broker) Events() chan<- Event { return b.events }

// ConnectionCount reports the number of connections currently in the
// table. Safe to call only from the loop goroutine; exposed for tests
// and the observability endpoint's metrics collection, which both run
// after Run's context is cancelled or via a synchronized snapshot.
func (b *Broker) ConnectionCount() int { return len(b.conns) }

// Run drains events until ctx is cancelled. It is the only goroutine
// that ever mutates b.conns, b.registry, or b.store — per SPEC_FULL.md
// §5, this is what lets every other piece of broker state go without
// its own lock.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for id, conn := range b.conns {
				conn.close()
				delete(b.conns, id)
			}
			return
		case ev := <-b.events:
			b.dispatch(ev)
		}
	}
}

func (b *Broker) dispatch(ev Event) {
	switch ev.Kind {
	case EventAccept:
		id, err := wire.NewConnectionID()
		if err != nil {
			applog.Errorf("broker: minting connection id: %v", err)
			ev.Conn.Close()
			return
		}
		b.handleAccept(newConnection(id, ev.Conn))
		if b.metrics != nil {
			b.metrics.ConnectionsTotal.Inc()
			b.metrics.ConnectionsOpen.Set(float64(len(b.conns)))
		}
	case EventPacket:
		if b.metrics != nil {
			b.metrics.PacketsTotal.WithLabelValues(metrics.PacketTagLabel(ev.Packet.Tag)).Inc()
		}
		b.handlePacket(ev.ConnID, ev.Packet)
	case EventConnError:
		b.handleConnError(ev.ConnID, ev.Err)
		if b.metrics != nil {
			b.metrics.ConnectionsOpen.Set(float64(len(b.conns)))
		}
	case EventPointUpdate:
		b.handlePointUpdate(ev.PointName, ev.Value)
	case EventExternalUpdate:
		b.handleExternalUpdate(ev.PointName, ev.Value)
	}
}
