// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package boltstore

import (
	"context"
	"path/filepath"
	"testing"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "points.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndGetValue(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	if err := s.StoreValue(ctx, "a/b", []byte{1, 2, 3}); err != nil {
		t.Fatalf("StoreValue: %v", err)
	}

	data, ok, err := s.GetValue(ctx, "a/b")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !ok {
		t.Fatal("GetValue: ok = false, want true")
	}
	if string(data) != "\x01\x02\x03" {
		t.Errorf("GetValue data = %v, want [1 2 3]", data)
	}
}

func TestGetValueMissingKey(t *testing.T) {
	s := open(t)

	_, ok, err := s.GetValue(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if ok {
		t.Error("GetValue on a missing key: ok = true, want false")
	}
}

func TestKeysPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.StoreValue(context.Background(), "a/b", []byte{1}); err != nil {
		t.Fatalf("StoreValue: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	keys, err := s2.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "a/b" {
		t.Errorf("Keys after reopen = %v, want [a/b]", keys)
	}
}
