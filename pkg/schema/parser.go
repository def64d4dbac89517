// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"strings"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

// ParseError carries a byte offset alongside the message, so callers
// can report "line N, column M"-style diagnostics if they choose to.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: %s (at byte %d)", e.Message, e.Pos)
}

// Parse reads a schema fragment and returns the top-level Namespaces
// it declares. Grammar:
//
//	root       := namespace*
//	namespace  := identifier "{" (point | namespace)* "}"
//	point      := "-" identifier ":" type ("|" type)*
//	type       := "boolean"|"blob"|"string"|"u8"|"i8"|"u16"|"i16"
//	             |"u32"|"i32"|"u64"|"i64"|"f32"|"f64"  (case-insensitive)
//	identifier := [A-Za-z_][A-Za-z0-9_]*
//
// Whitespace between tokens is free. Duplicate point identifiers
// within one namespace union their type sets. Parse is a pure
// function; it never mutates a Registry.
func Parse(input string) ([]*Namespace, error) {
	p := &parser{src: input}
	p.skipSpace()

	var roots []*Namespace
	for !p.atEOF() {
		ns, err := p.parseNamespace("")
		if err != nil {
			return nil, err
		}
		roots = append(roots, ns)
		p.skipSpace()
	}
	return roots, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) atEOF() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.atEOF() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.atEOF() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Pos: p.pos, Message: fmt.Sprintf(format, args...)}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func (p *parser) parseIdentifier() (string, error) {
	p.skipSpace()
	if p.atEOF() || !isIdentStart(p.peek()) {
		return "", p.errf("expected identifier")
	}
	start := p.pos
	p.pos++
	for !p.atEOF() && isIdentCont(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *parser) expect(b byte) error {
	p.skipSpace()
	if p.atEOF() || p.peek() != b {
		return p.errf("expected %q", b)
	}
	p.pos++
	return nil
}

// parseNamespace consumes `identifier "{" (point|namespace)* "}"` and
// returns a Namespace whose FullName is parentFull + "/" + local name
// (or just the local name at the root).
func (p *parser) parseNamespace(parentFull string) (*Namespace, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	fullName := name
	if parentFull != "" {
		fullName = parentFull + "/" + name
	}

	if err := p.expect('{'); err != nil {
		return nil, err
	}

	ns := newNamespace(name, fullName)

	p.skipSpace()
	for !p.atEOF() && p.peek() != '}' {
		if p.peek() == '-' {
			point, err := p.parsePoint(fullName)
			if err != nil {
				return nil, err
			}
			if existing, ok := ns.Points[point.Name]; ok {
				existing.merge(point)
			} else {
				ns.Points[point.Name] = point
			}
		} else {
			child, err := p.parseNamespace(fullName)
			if err != nil {
				return nil, err
			}
			// A nested namespace becomes its own flat entry (keyed by
			// full name) in the Schema; nothing is folded here, since
			// Flatten lifts it out of the tree and buildFromNamespaces
			// merges by full name across the whole fragment.
			ns.nested = append(ns.nested, child)
		}
		p.skipSpace()
	}

	if err := p.expect('}'); err != nil {
		return nil, err
	}

	return ns, nil
}

func (p *parser) parsePoint(namespaceFull string) (*Point, error) {
	if err := p.expect('-'); err != nil {
		return nil, err
	}
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expect(':'); err != nil {
		return nil, err
	}

	fullName := namespaceFull + "/" + name
	point := newPoint(name, fullName)

	for {
		typeName, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		t, err := parsePointType(typeName)
		if err != nil {
			return nil, p.errf("unknown type-name %q", typeName)
		}
		point.Types[t] = struct{}{}

		p.skipSpace()
		if p.peek() == '|' {
			p.pos++
			continue
		}
		break
	}

	return point, nil
}

func parsePointType(name string) (wire.PointType, error) {
	switch strings.ToLower(name) {
	case "boolean":
		return wire.TypeBoolean, nil
	case "blob":
		return wire.TypeBlob, nil
	case "string":
		return wire.TypeString, nil
	case "u8":
		return wire.TypeU8, nil
	case "i8":
		return wire.TypeI8, nil
	case "u16":
		return wire.TypeU16, nil
	case "i16":
		return wire.TypeI16, nil
	case "u32":
		return wire.TypeU32, nil
	case "i32":
		return wire.TypeI32, nil
	case "u64":
		return wire.TypeU64, nil
	case "i64":
		return wire.TypeI64, nil
	case "f32":
		return wire.TypeF32, nil
	case "f64":
		return wire.TypeF64, nil
	default:
		return 0, fmt.Errorf("unknown type-name %q", name)
	}
}

// Flatten walks ns and its nested namespaces (produced while parsing)
// and appends every one of them, recursively, to out - turning the
// parse-time tree shape into the flat list buildFromNamespaces expects.
func Flatten(roots []*Namespace) []*Namespace {
	var out []*Namespace
	var walk func(ns *Namespace)
	walk = func(ns *Namespace) {
		out = append(out, ns)
		for _, child := range ns.nested {
			walk(child)
		}
	}
	for _, ns := range roots {
		walk(ns)
	}
	return out
}
