// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package subscription

import "testing"

func TestEmptySetMatchesNothing(t *testing.T) {
	s := New()
	if s.Matches("any/point") {
		t.Error("empty Set matched a candidate")
	}
}

func TestSingleSegmentGlob(t *testing.T) {
	s := New()
	if err := s.Insert("some_namespace/*"); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if !s.Matches("some_namespace/a_point") {
		t.Error("expected some_namespace/* to match some_namespace/a_point")
	}
	if s.Matches("some_namespace/nested/a_point") {
		t.Error("* should not cross a '/'")
	}
}

func TestDoubleStarCrossesSegments(t *testing.T) {
	s := New()
	if err := s.Insert("some_other_namespace/**/specific_point"); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if !s.Matches("some_other_namespace/nested/very/deep/specific_point") {
		t.Error("** should match multiple segments")
	}
	if !s.Matches("some_other_namespace/specific_point") {
		t.Error("** should match zero segments")
	}
	if s.Matches("some_other_namespace/a_point") {
		t.Error("pattern should not match an unrelated leaf")
	}
}

func TestCaseInsensitive(t *testing.T) {
	s := New()
	if err := s.Insert("FIRST_NAMESPACE/*"); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if !s.Matches("first_namespace/some_value") {
		t.Error("subscription should match regardless of case")
	}
	if !s.Matches("FIRST_NAMESPACE/SOME_VALUE") {
		t.Error("subscription should match regardless of case variation")
	}
}

func TestInsertInvalidPatternLeavesSetUnchanged(t *testing.T) {
	s := New()
	if err := s.Insert("valid/*"); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if err := s.Insert("invalid[pattern"); err == nil {
		t.Fatal("expected malformed glob to fail")
	}

	if !s.Matches("valid/leaf") {
		t.Error("previously inserted pattern should still match after a failed Insert")
	}
	if len(s.Patterns()) != 1 {
		t.Errorf("Patterns() = %v, want only the one successfully inserted pattern", s.Patterns())
	}
}
