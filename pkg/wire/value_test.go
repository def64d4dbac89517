// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
)

// ─── Round-trip laws ────────────────────────────────────────────────────────

func TestValueRoundTrip(t *testing.T) {
	cases := []Value{
		Bool(true),
		Bool(false),
		Blob([]byte{1, 2, 3, 4}),
		Blob([]byte{}),
		Str("hello, world"),
		Str(""),
		U8(255),
		I8(-128),
		U16(65535),
		I16(-32768),
		U32(4294967295),
		I32(-2147483648),
		U64(18446744073709551615),
		I64(-9223372036854775808),
		F32(3.14159),
		F64(-2.71828182845),
	}

	for _, v := range cases {
		var buf bytes.Buffer
		if err := WriteValue(&buf, v); err != nil {
			t.Fatalf("WriteValue(%v) error: %v", v, err)
		}

		got, err := ReadValue(&buf)
		if err != nil {
			t.Fatalf("ReadValue() after WriteValue(%v) error: %v", v, err)
		}

		if !got.Equal(v) {
			t.Errorf("round-trip mismatch: wrote %v, read %v", v, got)
		}
	}
}

func TestReadValueUnknownTag(t *testing.T) {
	buf := bytes.NewReader([]byte{0xFE})
	if _, err := ReadValue(buf); err == nil {
		t.Fatal("ReadValue with unknown tag: expected error, got nil")
	}
}

func TestReadValueShortRead(t *testing.T) {
	buf := bytes.NewReader([]byte{byte(TypeU32), 0x00, 0x01})
	if _, err := ReadValue(buf); err == nil {
		t.Fatal("ReadValue with truncated payload: expected error, got nil")
	}
}

func TestReadValueInvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(TypeString))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x02})
	buf.Write([]byte{0xFF, 0xFE})

	if _, err := ReadValue(&buf); err != ErrInvalidUTF8 {
		t.Fatalf("ReadValue with invalid UTF-8: got %v, want %v", err, ErrInvalidUTF8)
	}
}

func TestPointTypeOf(t *testing.T) {
	if got := PointTypeOf(I32(7)); got != TypeI32 {
		t.Errorf("PointTypeOf(I32(7)) = %v, want %v", got, TypeI32)
	}
	if got := PointTypeOf(Str("x")); got != TypeString {
		t.Errorf("PointTypeOf(Str(\"x\")) = %v, want %v", got, TypeString)
	}
}

func TestWireLayoutIsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteValue(&buf, I32(7)); err != nil {
		t.Fatalf("WriteValue error: %v", err)
	}

	// tag byte, then 00 00 00 07
	want := []byte{byte(TypeI32), 0x00, 0x00, 0x00, 0x07}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("I32(7) encoded as % x, want % x", buf.Bytes(), want)
	}
}
