// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store defines the pluggable key/value persistence interface
// the broker uses to hold the last-writer-wins value for every point,
// and ships three implementations: an in-process map (memstore), an
// embedded bbolt file (boltstore), and a SQLite table (sqlstore).
//
// The broker always serializes through pkg/wire before calling Store,
// and deserializes symmetrically on read, so a backend only ever sees
// bytes in, bytes out.
package store

import "context"

// Store persists the last-writer-wins value for a key. Durability is
// backend-defined; memstore offers none, boltstore and sqlstore commit
// every write. The broker writes only from its single event loop
// goroutine, while pkg/checkpoint reads Keys/GetValue from its own
// scheduler goroutine; the three backends here are safe for that
// (memstore guards its map with a sync.RWMutex, bbolt and database/sql
// synchronize internally).
type Store interface {
	// StoreValue persists data under key, replacing any prior value.
	StoreValue(ctx context.Context, key string, data []byte) error

	// GetValue returns the bytes last stored under key, or ok=false if
	// the key has never been written.
	GetValue(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Keys returns every key currently holding a value. Used by the
	// checkpoint exporter; not part of the wire protocol.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources (file handles, DB connections) held
	// by the backend.
	Close() error
}
