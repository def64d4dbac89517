// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package subscription implements the glob-based matcher a Connection
// uses to decide which fan-out updates it should receive. Patterns are
// case-insensitive, '/' is a literal path separator, '*' matches one
// segment, and '**' matches zero or more segments.
package subscription

import (
	"strings"

	"github.com/gobwas/glob"
)

// Set holds the source-of-truth patterns a connection has subscribed
// with, plus one compiled glob per pattern. Insert compiles only the
// new pattern and appends it; Matches tries every compiled glob in turn,
// so the set matches a name iff at least one of its patterns does.
//
// Set is not safe for concurrent Insert and Matches calls; the event
// loop serializes all mutation (see pkg/broker), so Matches only ever
// runs concurrently with other Matches calls, never with an Insert.
type Set struct {
	patterns []string
	globs    []glob.Glob
}

// New returns an empty Set. An empty Set matches nothing.
func New() *Set {
	return &Set{}
}

// Insert compiles pattern and adds it to the set. On a glob syntax
// error, the set is left unmodified and the error is returned.
//
// gobwas/glob's "**" does not absorb the separators around it, so each
// "/**/" is compiled as the alternative {/,/**/} to let it match zero
// segments too ("a/**/b" matches "a/b"). A leading "**/" still needs at
// least one segment before the rest of the pattern.
func (s *Set) Insert(pattern string) error {
	expr := strings.ReplaceAll(strings.ToLower(pattern), "/**/", "{/,/**/}")
	g, err := glob.Compile(expr, '/')
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, pattern)
	s.globs = append(s.globs, g)
	return nil
}

// Matches reports whether candidate (a fully-qualified point name) is
// matched by any pattern in the set. Matching is case-insensitive.
func (s *Set) Matches(candidate string) bool {
	if len(s.globs) == 0 {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, g := range s.globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// Patterns returns the raw pattern strings inserted so far, in
// insertion order. Used for diagnostics/testing.
func (s *Set) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}
