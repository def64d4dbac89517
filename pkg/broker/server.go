// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broker

import (
	"context"
	"net"

	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/store"
)

// DefaultListenAddr is the broker's default TCP bind address.
const DefaultListenAddr = "127.0.0.1:8080"

// Server owns the TCP listener and the Broker event loop it feeds.
type Server struct {
	Broker   *Broker
	listener net.Listener
}

// Listen binds addr and constructs a Server around a fresh Broker
// backed by st. The broker does not start processing events until
// Serve is called.
func Listen(addr string, st store.Store) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{Broker: New(st), listener: ln}, nil
}

// Addr returns the listener's bound address, useful when addr was
// "127.0.0.1:0" and the OS picked an ephemeral port (as tests do).
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve runs the broker's event loop and the listener's accept loop
// concurrently, blocking until ctx is cancelled. On return, the
// listener and every open connection have been closed.
func (s *Server) Serve(ctx context.Context) {
	go s.acceptLoop(ctx)
	s.Broker.Run(ctx)
}

// acceptLoop accepts connections and emits one EventAccept per
// accepted net.Conn; it never touches broker state directly. It exits
// when ctx is cancelled (observed indirectly via the listener closing)
// or the listener returns a permanent error.
func (s *Server) acceptLoop(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	events := s.Broker.Events()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				applog.Errorf("broker: accept: %v", err)
				return
			}
		}

		select {
		case events <- Event{Kind: EventAccept, Conn: conn}:
		case <-ctx.Done():
			conn.Close()
			return
		}
	}
}

// Close closes the underlying listener without waiting for the event
// loop to drain. Prefer cancelling the context passed to Serve in
// normal operation; Close exists for callers that never called Serve.
func (s *Server) Close() error {
	return s.listener.Close()
}
