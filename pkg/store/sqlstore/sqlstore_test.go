// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.db")
	s, err := Open(path)
	require.NoError(t, err, "Open should succeed against a fresh path")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := setup(t)

	keys, err := s.Keys(context.Background())
	require.NoError(t, err, "Keys should succeed once migrated")
	assert.Empty(t, keys, "a freshly migrated store has no points")
}

func TestStoreAndGetValue(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.StoreValue(ctx, "a/b", []byte{1, 2, 3}))

	data, ok, err := s.GetValue(ctx, "a/b")
	require.NoError(t, err)
	require.True(t, ok, "GetValue should find a key that was just stored")
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestGetValueMissingKey(t *testing.T) {
	s := setup(t)

	_, ok, err := s.GetValue(context.Background(), "does/not/exist")
	require.NoError(t, err)
	assert.False(t, ok, "GetValue on an unwritten key should report ok=false, not an error")
}

func TestStoreValueUpsertsOnConflict(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.StoreValue(ctx, "a/b", []byte{1}))
	require.NoError(t, s.StoreValue(ctx, "a/b", []byte{2}))

	data, ok, err := s.GetValue(ctx, "a/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, data, "the second StoreValue should replace the first, not duplicate the row")
}

func TestKeys(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.StoreValue(ctx, "a/b", []byte{1}))
	require.NoError(t, s.StoreValue(ctx, "a/c", []byte{2}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/b", "a/c"}, keys)
}
