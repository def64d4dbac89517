// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpapi is the broker's observability surface: a small
// net/http server, routed with gorilla/mux the way the teacher routes
// its REST/GraphQL surface, exposing liveness and Prometheus metrics.
// It never touches broker state directly — only through the read-only
// accessors Broker already exposes for this purpose.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fluxpoint-io/broker/pkg/metrics"
)

// HealthChecker is what /healthz calls on each request.
// pkg/broker.Broker satisfies it through ConnectionCount. The handler
// discards the count and replies 200; it does not detect whether the
// broker's event loop is still running.
type HealthChecker interface {
	ConnectionCount() int
}

// Server is the observability HTTP server. It is independent of
// pkg/broker.Server (the TCP listener) and normally runs on a
// different address.
type Server struct {
	httpServer *http.Server
}

// New builds the observability server's router: /healthz always
// replies 200 once checker is non-nil reachable, /metrics serves m's
// registry in the Prometheus exposition format.
func New(addr string, checker HealthChecker, m *metrics.Metrics) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = checker.ConnectionCount()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	if m != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return &Server{httpServer: &http.Server{Addr: addr, Handler: r}}
}

// ListenAndServe blocks serving the observability endpoints until the
// server is closed or a fatal error occurs. It returns
// http.ErrServerClosed on a clean Close, matching net/http's own
// convention so callers can distinguish the two.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Close shuts the observability server down immediately.
func (s *Server) Close() error {
	return s.httpServer.Close()
}
