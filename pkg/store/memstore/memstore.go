// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memstore is the default store.Store backend: an in-process
// map guarded by a mutex. It offers no durability across restarts; use
// boltstore or sqlstore, or pair it with pkg/checkpoint, when that
// matters.
package memstore

import (
	"context"
	"sync"
)

// Store is an in-memory store.Store. The zero value is not usable;
// construct with New.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New returns an empty, ready-to-use Store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) StoreValue(_ context.Context, key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	s.values[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *Store) GetValue(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *Store) Close() error { return nil }
