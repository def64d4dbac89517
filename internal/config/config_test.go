// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	Keys = Config{Store: StoreConfig{Backend: "memory"}}

	if err := Init(filepath.Join(t.TempDir(), "does-not-exist.json")); err != nil {
		t.Fatalf("Init with missing file: %v", err)
	}
	if Keys.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want unchanged default", Keys.Store.Backend)
	}
}

func TestInitValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"listen-addr": "0.0.0.0:9090", "store": {"backend": "bolt", "path": "./data.db"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if Keys.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:9090", Keys.ListenAddr)
	}
	if Keys.Store.Backend != "bolt" {
		t.Errorf("Store.Backend = %q, want bolt", Keys.Store.Backend)
	}
}

func TestInitRejectsInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"store": {"backend": "not-a-real-backend"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	if err := Init(path); err == nil {
		t.Fatal("expected schema validation to reject an unknown store backend")
	}
}

func TestInitRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"store": {"backend": "memory"}, "not-a-real-field": true}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	if err := Init(path); err == nil {
		t.Fatal("expected Init's strict decoding to reject an unknown top-level field")
	}
}
