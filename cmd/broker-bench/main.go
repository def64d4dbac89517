// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command broker-bench issues a fixed number of Update packets over a
// single connection and reports the average round-trip latency,
// mirroring original_source/backend/client's load-testing client.
package main

import (
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

func main() {
	var (
		addr  string
		count int
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:8080", "broker address to connect to")
	flag.IntVar(&count, "count", 1000, "number of Update packets to send")
	flag.Parse()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Printf("connecting to %s: %v\n", addr, err)
		return
	}
	defer conn.Close()

	schemaFragment := `
		first_namespace {
			- name: string
			- some_value: i32 | u16
		}
	`

	schemaKey, err := wire.NewStringKey("first_namespace/some_value")
	if err != nil {
		fmt.Printf("building key: %v\n", err)
		return
	}

	if err := wire.WritePacket(conn, wire.NewRegisterSchema(schemaFragment)); err != nil {
		fmt.Printf("registering schema: %v\n", err)
		return
	}
	if _, err := wire.ReadPacket(conn); err != nil {
		fmt.Printf("reading schema registration reply: %v\n", err)
		return
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		update := wire.NewUpdate(schemaKey, wire.I32(int32(i)))
		if err := wire.WritePacket(conn, update); err != nil {
			fmt.Printf("writing update %d: %v\n", i, err)
			return
		}
		if _, err := wire.ReadPacket(conn); err != nil {
			fmt.Printf("reading reply to update %d: %v\n", i, err)
			return
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("%.4f ms/update\n", float64(elapsed.Milliseconds())/float64(count))
}
