// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the broker's JSON configuration file and
// validates it against the embedded JSON Schema in schemas/.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// StoreConfig selects and configures one of pkg/store's backends.
type StoreConfig struct {
	Backend string `json:"backend"` // "memory", "bolt", or "sqlite"
	Path    string `json:"path"`
}

// NatsConfig configures the optional pkg/natsbridge ingestion bridge.
// Address empty means the bridge is disabled.
type NatsConfig struct {
	Address       string   `json:"address"`
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	CredsFilePath string   `json:"creds-file-path"`
	Subjects      []string `json:"subjects"`
}

// CheckpointConfig configures pkg/checkpoint's periodic Avro export.
type CheckpointConfig struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"` // parsed with time.ParseDuration
	Path     string `json:"path"`
}

// ObservabilityConfig configures pkg/httpapi's healthz/metrics/gops
// endpoint.
type ObservabilityConfig struct {
	ListenAddr string `json:"listen-addr"`
	EnableGops bool   `json:"enable-gops"`
}

// Config is the broker's top-level configuration.
type Config struct {
	ListenAddr    string              `json:"listen-addr"`
	Store         StoreConfig         `json:"store"`
	Nats          NatsConfig          `json:"nats"`
	Checkpoint    CheckpointConfig    `json:"checkpoint"`
	Observability ObservabilityConfig `json:"observability"`
	LogLevel      string              `json:"log-level"`
}

// Keys holds the process-wide configuration, populated by Init. It
// starts out with defaults sufficient to run a broker against nothing
// but an in-memory store.
var Keys = Config{
	ListenAddr: "127.0.0.1:8080",
	Store: StoreConfig{
		Backend: "memory",
		Path:    "./db",
	},
	Observability: ObservabilityConfig{
		ListenAddr: "127.0.0.1:8081",
	},
	LogLevel: "info",
}

// Init reads the JSON config file at path into Keys, after validating
// it against the embedded schema. A missing file is not an error:
// Keys keeps its defaults.
func Init(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := validate(raw); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	return nil
}
