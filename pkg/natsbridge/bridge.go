// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package natsbridge is an optional ingestion path that republishes
// NATS messages as broker Update events, letting an external metrics
// pipeline feed the broker without a second bespoke protocol. It is
// only active when the broker is configured with a NATS address and
// at least one subject.
package natsbridge

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/wire"
)

// Config mirrors internal/config.NatsConfig without importing it
// directly, keeping this package independent of the config layer.
type Config struct {
	Address       string
	Username      string
	Password      string
	CredsFilePath string
	Subjects      []string
}

// Sink is the destination a Bridge forwards decoded updates to. In
// practice this is a pkg/broker.Broker, whose PublishUpdate sends an
// EventExternalUpdate onto its event channel; the interface keeps this
// package from importing pkg/broker.
type Sink interface {
	PublishUpdate(fullName string, value wire.Value)
}

// Bridge wraps a NATS connection subscribed to one or more subjects,
// decoding each message as a single line-protocol sample or a raw
// Value-tagged payload and forwarding it to a Sink.
type Bridge struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// Connect dials NATS using the same options pattern as pkg/nats's
// client: user/pass or a credentials file, plus reconnect/error
// logging via pkg/log.
func Connect(cfg Config) (*Bridge, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("natsbridge: address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				applog.Warnf("natsbridge: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			applog.Infof("natsbridge: reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			applog.Errorf("natsbridge: error: %v", err)
		}),
	)

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("natsbridge: connect: %w", err)
	}
	applog.Infof("natsbridge: connected to %s", cfg.Address)

	return &Bridge{conn: nc}, nil
}

// Start subscribes to every configured subject and forwards decoded
// updates to sink until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context, cfg Config, sink Sink) error {
	for _, subject := range cfg.Subjects {
		subject := subject
		sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
			samples, err := Decode(msg.Data)
			if err != nil {
				applog.Errorf("natsbridge: decode message on %q: %v", subject, err)
				return
			}
			for _, s := range samples {
				sink.PublishUpdate(s.FullName, s.Value)
			}
		})
		if err != nil {
			return fmt.Errorf("natsbridge: subscribe to %q: %w", subject, err)
		}
		b.subs = append(b.subs, sub)
		applog.Infof("natsbridge: subscribed to %q", subject)
	}

	go func() {
		<-ctx.Done()
		b.Close()
	}()
	return nil
}

// Close unsubscribes and closes the underlying NATS connection.
func (b *Bridge) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	if b.conn != nil {
		b.conn.Close()
	}
}
