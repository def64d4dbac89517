// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package schema

import (
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

// lookupCacheSize bounds the point-lookup LRU cache fronting Registry.
// Sized generously for the namespace depths this protocol expects;
// a miss just falls through to the map lookup, so a cold cache never
// produces a wrong answer, only a slower one.
const lookupCacheSize = 4096

// Registry holds the broker's single, process-wide Schema behind an
// atomic pointer. Only the event loop (C8) ever calls Build; lookups
// from handler code read whatever generation is currently published,
// through the LRU cache (which takes its own internal lock).
type Registry struct {
	current atomic.Pointer[Schema]
	cache   *lru.Cache[string, *Point]
}

// NewRegistry returns a Registry initialized to the empty Schema.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(Empty())
	cache, err := lru.New[string, *Point](lookupCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// lookupCacheSize never is.
		panic(err)
	}
	r.cache = cache
	return r
}

// Current returns the currently published Schema. The returned value
// is immutable; it is safe to read concurrently with a Build call that
// replaces it for future callers.
func (r *Registry) Current() *Schema {
	return r.current.Load()
}

// Build concatenates fragments (each the last RegisterSchema payload
// submitted by one connection) separated by "\r\n", parses the result,
// and atomically replaces the published Schema. On parse failure the
// previous schema is retained untouched and the parse error is
// returned to the caller.
func (r *Registry) Build(fragments []string) error {
	combined := strings.Join(fragments, "\r\n")

	roots, err := Parse(combined)
	if err != nil {
		return err
	}

	next := Build(roots)
	r.current.Store(next)
	r.cache.Purge()
	return nil
}

// Lookup resolves a fully-qualified point name against the currently
// published schema, going through the LRU cache first.
func (r *Registry) Lookup(fullName string) (*Point, bool) {
	if p, ok := r.cache.Get(fullName); ok {
		return p, true
	}
	p, ok := r.current.Load().Lookup(fullName)
	if ok {
		r.cache.Add(fullName, p)
	}
	return p, ok
}

// Accepts reports whether v is a legal value for the point named
// fullName under the current schema: the point must exist and its
// type set must contain v's PointType.
func (r *Registry) Accepts(fullName string, v wire.Value) bool {
	p, ok := r.Lookup(fullName)
	if !ok {
		return false
	}
	return p.HasType(wire.PointTypeOf(v))
}
