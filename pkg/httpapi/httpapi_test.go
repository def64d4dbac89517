// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fluxpoint-io/broker/pkg/metrics"
)

type fakeChecker struct{ n int }

func (f fakeChecker) ConnectionCount() int { return f.n }

func TestHealthzReturnsOK(t *testing.T) {
	srv := New("127.0.0.1:0", fakeChecker{n: 3}, metrics.New())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.httpServer.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	m := metrics.New()
	m.ConnectionsTotal.Inc()
	srv := New("127.0.0.1:0", fakeChecker{}, m)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.httpServer.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "broker_connections_accepted_total 1") {
		t.Errorf("expected exported counter value in body, got:\n%s", rr.Body.String())
	}
}
