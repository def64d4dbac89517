// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema parses namespace/point declarations contributed by
// connected clients, merges them into one flat Schema, and looks up
// points by fully-qualified name. See Registry for the mutable,
// concurrency-safe wrapper brokers hold onto.
package schema

import "github.com/fluxpoint-io/broker/pkg/wire"

// Point is a named, typed data slot within a namespace. Two Points are
// equal iff their FullName is equal; Types is the non-empty union of
// PointTypes this point may carry.
type Point struct {
	Name     string
	FullName string
	Types    map[wire.PointType]struct{}
}

func newPoint(name, fullName string) *Point {
	return &Point{Name: name, FullName: fullName, Types: make(map[wire.PointType]struct{})}
}

// HasType reports whether t is one of the point's permitted types.
func (p *Point) HasType(t wire.PointType) bool {
	_, ok := p.Types[t]
	return ok
}

// merge unions other's type set into p. Declaring a point twice with
// different types is not an error: the sets are combined.
func (p *Point) merge(other *Point) {
	for t := range other.Types {
		p.Types[t] = struct{}{}
	}
}

// Namespace is a named container of points, keyed by local point name.
// Its FullName is the '/'-joined path from the schema root.
type Namespace struct {
	Name     string
	FullName string
	Points   map[string]*Point

	// nested holds namespaces declared inside this one at parse time.
	// Flatten lifts these into a flat list that buildFromNamespaces
	// merges into Schema.Namespaces by full name; Namespace itself
	// carries no parent back-pointer.
	nested []*Namespace
}

func newNamespace(name, fullName string) *Namespace {
	return &Namespace{Name: name, FullName: fullName, Points: make(map[string]*Point)}
}

// merge unions other's points into ns, combining type sets for points
// that appear in both.
func (ns *Namespace) merge(other *Namespace) {
	for name, point := range other.Points {
		if existing, ok := ns.Points[name]; ok {
			existing.merge(point)
		} else {
			ns.Points[name] = point
		}
	}
}

// Schema is the immutable result of merging every connection's schema
// fragment: a flat map of namespace full-name to Namespace, plus an
// index from point full-name to Point. A Schema is never mutated after
// construction; the registry replaces it whole-object on every
// successful build.
type Schema struct {
	Namespaces map[string]*Namespace
	points     map[string]*Point
}

// Empty returns a Schema with no namespaces or points, the value a
// Registry starts with before any RegisterSchema has succeeded.
func Empty() *Schema {
	return &Schema{Namespaces: map[string]*Namespace{}, points: map[string]*Point{}}
}

// Lookup returns the Point for a fully-qualified name (already
// lowercase ASCII, as produced by StringKey), or ok=false if no such
// point was declared.
func (s *Schema) Lookup(fullName string) (*Point, bool) {
	p, ok := s.points[fullName]
	return p, ok
}

// Len reports the total number of distinct points across all
// namespaces, used by tests asserting on merge outcomes.
func (s *Schema) Len() int {
	return len(s.points)
}

// Build flattens a parse tree (as produced by one or more calls to
// Parse) and merges same-named namespaces, indexing every point by
// full name. Merge order does not affect the result up to type-set
// equality: building is commutative over the input namespace list.
func Build(roots []*Namespace) *Schema {
	return buildFromNamespaces(Flatten(roots))
}

// buildFromNamespaces merges an already-flattened list of Namespaces
// into a single Schema, merging same-named siblings.
func buildFromNamespaces(roots []*Namespace) *Schema {
	merged := map[string]*Namespace{}
	for _, ns := range roots {
		if existing, ok := merged[ns.FullName]; ok {
			existing.merge(ns)
		} else {
			merged[ns.FullName] = ns
		}
	}

	s := &Schema{Namespaces: merged, points: map[string]*Point{}}
	for _, ns := range merged {
		for _, p := range ns.Points {
			s.points[p.FullName] = p
		}
	}
	return s
}
