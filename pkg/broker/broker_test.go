// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broker

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fluxpoint-io/broker/pkg/store/memstore"
	"github.com/fluxpoint-io/broker/pkg/wire"
)

func startTestServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()

	srv, err := Listen("127.0.0.1:0", memstore.New())
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()

	return srv.Addr().String(), func() {
		cancel()
		<-done
	}
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func expectOk(t *testing.T, conn net.Conn) {
	t.Helper()
	pkt, err := wire.ReadPacket(conn)
	if err != nil {
		t.Fatalf("ReadPacket error: %v", err)
	}
	if pkt.Tag != wire.PacketOk {
		t.Fatalf("expected Ok, got %v", pkt.Tag)
	}
}

func expectError(t *testing.T, conn net.Conn, contains string) {
	t.Helper()
	pkt, err := wire.ReadPacket(conn)
	if err != nil {
		t.Fatalf("ReadPacket error: %v", err)
	}
	if pkt.Tag != wire.PacketError {
		t.Fatalf("expected Error, got %v", pkt.Tag)
	}
	if !strings.Contains(pkt.Value.AsString(), contains) {
		t.Fatalf("Error message %q does not contain %q", pkt.Value.AsString(), contains)
	}
}

func mustKey(t *testing.T, s string) wire.StringKey {
	t.Helper()
	k, err := wire.NewStringKey(s)
	if err != nil {
		t.Fatalf("NewStringKey(%q) error: %v", s, err)
	}
	return k
}

// Scenario 1: schema then update.
func TestSchemaThenUpdate(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	err := wire.WritePacket(conn, wire.NewRegisterSchema("first_namespace {\n - some_value: i32 | u16\n}"))
	if err != nil {
		t.Fatalf("WritePacket error: %v", err)
	}
	expectOk(t, conn)

	key := mustKey(t, "first_namespace/some_value")
	if err := wire.WritePacket(conn, wire.NewUpdate(key, wire.I32(7))); err != nil {
		t.Fatalf("WritePacket error: %v", err)
	}
	expectOk(t, conn)
}

// Scenario 2: type mismatch.
func TestUpdateTypeMismatch(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	wire.WritePacket(conn, wire.NewRegisterSchema("first_namespace {\n - some_value: i32 | u16\n}"))
	expectOk(t, conn)

	key := mustKey(t, "first_namespace/some_value")
	wire.WritePacket(conn, wire.NewUpdate(key, wire.Str("x")))
	expectError(t, conn, "invalid point-type")
}

// Scenario 3: unknown point.
func TestUpdateUnknownPoint(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	wire.WritePacket(conn, wire.NewRegisterSchema("first_namespace {\n - some_value: i32 | u16\n}"))
	expectOk(t, conn)

	key := mustKey(t, "first_namespace/missing")
	wire.WritePacket(conn, wire.NewUpdate(key, wire.I32(0)))
	expectError(t, conn, "invalid point")
}

// Scenario 4: subscribe + fan-out, no self-exclusion.
func TestSubscribeAndFanOut(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	schemaConn := dial(t, addr)
	defer schemaConn.Close()
	wire.WritePacket(schemaConn, wire.NewRegisterSchema("first_namespace {\n - some_value: i32 | u16\n}"))
	expectOk(t, schemaConn)

	a := dial(t, addr)
	defer a.Close()
	wire.WritePacket(a, wire.NewSubscribe(mustKey(t, "first_namespace/*")))
	expectOk(t, a)

	b := dial(t, addr)
	defer b.Close()

	key := mustKey(t, "first_namespace/some_value")
	wire.WritePacket(b, wire.NewUpdate(key, wire.I32(42)))
	expectOk(t, b)

	pkt, err := wire.ReadPacket(a)
	if err != nil {
		t.Fatalf("ReadPacket on subscriber: %v", err)
	}
	if pkt.Tag != wire.PacketUpdate || pkt.Value.AsI32() != 42 {
		t.Fatalf("subscriber got %+v, want Update I32(42)", pkt)
	}
}

// Scenario 5: case-insensitive subscription.
func TestSubscriptionCaseInsensitive(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	schemaConn := dial(t, addr)
	defer schemaConn.Close()
	wire.WritePacket(schemaConn, wire.NewRegisterSchema("first_namespace {\n - some_value: i32 | u16\n}"))
	expectOk(t, schemaConn)

	a := dial(t, addr)
	defer a.Close()
	wire.WritePacket(a, wire.NewSubscribe(mustKey(t, "FIRST_NAMESPACE/*")))
	expectOk(t, a)

	b := dial(t, addr)
	defer b.Close()
	key := mustKey(t, "first_namespace/some_value")
	wire.WritePacket(b, wire.NewUpdate(key, wire.I32(1)))
	expectOk(t, b)

	pkt, err := wire.ReadPacket(a)
	if err != nil {
		t.Fatalf("ReadPacket on subscriber: %v", err)
	}
	if pkt.Tag != wire.PacketUpdate {
		t.Fatalf("expected fan-out Update, got %v", pkt.Tag)
	}
}

// Scenario 6: malformed frame drops only the offending connection.
func TestMalformedFrameDropsOnlyOffendingConnection(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	bad := dial(t, addr)
	defer bad.Close()
	if _, err := bad.Write([]byte{0xFE}); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	// The bad connection should observe EOF/closed once the broker
	// drops it.
	buf := make([]byte, 1)
	bad.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := bad.Read(buf); err == nil {
		t.Fatal("expected malformed-frame connection to be closed by the broker")
	}

	good := dial(t, addr)
	defer good.Close()
	wire.WritePacket(good, wire.NewRegisterSchema("ns { - a: u8 }"))
	expectOk(t, good)
}

func TestListIsUnimplemented(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	wire.WritePacket(conn, wire.NewList(mustKey(t, "whatever")))
	expectError(t, conn, "not implemented")
}

func TestRegisterSchemaRebuildsFromAllConnections(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	a := dial(t, addr)
	defer a.Close()
	wire.WritePacket(a, wire.NewRegisterSchema("ns_a { - x: u8 }"))
	expectOk(t, a)

	b := dial(t, addr)
	defer b.Close()
	wire.WritePacket(b, wire.NewRegisterSchema("ns_b { - y: i32 }"))
	expectOk(t, b)

	// Both fragments should now be visible: an update against
	// ns_a/x (registered only by connection a) must succeed on b's
	// connection, proving the schema was rebuilt from all connections.
	wire.WritePacket(b, wire.NewUpdate(mustKey(t, "ns_a/x"), wire.U8(1)))
	expectOk(t, b)
}
