// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire implements the binary framing protocol spoken between
// brokers and clients: a tagged-union Value codec and a Packet codec
// layered on top of it. All integers are big-endian; Blob and String
// payloads are length-prefixed with a u32.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// PointType mirrors Value's variant set without a payload. It is what
// a schema Point declares as its permitted type(s).
type PointType byte

const (
	TypeBoolean PointType = iota + 1
	TypeBlob
	TypeString
	TypeU8
	TypeI8
	TypeU16
	TypeI16
	TypeU32
	TypeI32
	TypeU64
	TypeI64
	TypeF32
	TypeF64
)

func (t PointType) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeBlob:
		return "blob"
	case TypeString:
		return "string"
	case TypeU8:
		return "u8"
	case TypeI8:
		return "i8"
	case TypeU16:
		return "u16"
	case TypeI16:
		return "i16"
	case TypeU32:
		return "u32"
	case TypeI32:
		return "i32"
	case TypeU64:
		return "u64"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	default:
		return fmt.Sprintf("PointType(%d)", byte(t))
	}
}

// Value is a tagged union over the closed variant set understood by
// the wire protocol. Exactly one of the fields below is meaningful for
// a given Tag; callers should use the constructors (Bool, Blob, ...)
// rather than populating the struct by hand.
type Value struct {
	Tag PointType

	b    bool
	blob []byte
	str  string
	u64  uint64 // backs all unsigned and signed integer variants
	f32  float32
	f64  float64
}

func Bool(v bool) Value             { return Value{Tag: TypeBoolean, b: v} }
func Blob(v []byte) Value           { return Value{Tag: TypeBlob, blob: v} }
func Str(v string) Value            { return Value{Tag: TypeString, str: v} }
func U8(v uint8) Value              { return Value{Tag: TypeU8, u64: uint64(v)} }
func I8(v int8) Value               { return Value{Tag: TypeI8, u64: uint64(uint8(v))} }
func U16(v uint16) Value            { return Value{Tag: TypeU16, u64: uint64(v)} }
func I16(v int16) Value             { return Value{Tag: TypeI16, u64: uint64(uint16(v))} }
func U32(v uint32) Value            { return Value{Tag: TypeU32, u64: uint64(v)} }
func I32(v int32) Value             { return Value{Tag: TypeI32, u64: uint64(uint32(v))} }
func U64(v uint64) Value            { return Value{Tag: TypeU64, u64: v} }
func I64(v int64) Value             { return Value{Tag: TypeI64, u64: uint64(v)} }
func F32(v float32) Value           { return Value{Tag: TypeF32, f32: v} }
func F64(v float64) Value           { return Value{Tag: TypeF64, f64: v} }

func (v Value) AsBool() bool       { return v.b }
func (v Value) AsBlob() []byte     { return v.blob }
func (v Value) AsString() string   { return v.str }
func (v Value) AsU8() uint8        { return uint8(v.u64) }
func (v Value) AsI8() int8         { return int8(uint8(v.u64)) }
func (v Value) AsU16() uint16      { return uint16(v.u64) }
func (v Value) AsI16() int16       { return int16(uint16(v.u64)) }
func (v Value) AsU32() uint32      { return uint32(v.u64) }
func (v Value) AsI32() int32       { return int32(uint32(v.u64)) }
func (v Value) AsU64() uint64      { return v.u64 }
func (v Value) AsI64() int64       { return int64(v.u64) }
func (v Value) AsF32() float32     { return v.f32 }
func (v Value) AsF64() float64     { return v.f64 }

// Equal reports whether v and other carry the same tag and payload,
// used by the round-trip tests.
func (v Value) Equal(other Value) bool {
	if v.Tag != other.Tag {
		return false
	}
	switch v.Tag {
	case TypeBoolean:
		return v.b == other.b
	case TypeBlob:
		if len(v.blob) != len(other.blob) {
			return false
		}
		for i := range v.blob {
			if v.blob[i] != other.blob[i] {
				return false
			}
		}
		return true
	case TypeString:
		return v.str == other.str
	case TypeF32:
		return v.f32 == other.f32
	case TypeF64:
		return v.f64 == other.f64
	default:
		return v.u64 == other.u64
	}
}

// PointTypeOf returns the PointType a Value's tag corresponds to. It
// is a pure mapping: every Value variant maps to exactly one PointType.
func PointTypeOf(v Value) PointType {
	return v.Tag
}

var (
	ErrUnknownValueTag = fmt.Errorf("wire: unknown value tag")
	ErrInvalidUTF8     = fmt.Errorf("wire: string payload is not valid UTF-8")
)

// WriteValue encodes v as one tag byte followed by its payload.
// Fixed-width numerics are big-endian; Blob/String are prefixed with a
// big-endian u32 length. WriteValue is infallible given a well-formed
// Value except for the underlying writer failing.
func WriteValue(w io.Writer, v Value) error {
	if _, err := w.Write([]byte{byte(v.Tag)}); err != nil {
		return err
	}

	switch v.Tag {
	case TypeBoolean:
		b := byte(0)
		if v.b {
			b = 1
		}
		_, err := w.Write([]byte{b})
		return err
	case TypeBlob:
		return writeLenPrefixed(w, v.blob)
	case TypeString:
		return writeLenPrefixed(w, []byte(v.str))
	case TypeU8, TypeI8:
		_, err := w.Write([]byte{byte(v.u64)})
		return err
	case TypeU16, TypeI16:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(v.u64))
		_, err := w.Write(buf[:])
		return err
	case TypeU32, TypeI32:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v.u64))
		_, err := w.Write(buf[:])
		return err
	case TypeU64, TypeI64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], v.u64)
		_, err := w.Write(buf[:])
		return err
	case TypeF32:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], math.Float32bits(v.f32))
		_, err := w.Write(buf[:])
		return err
	case TypeF64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.f64))
		_, err := w.Write(buf[:])
		return err
	default:
		return fmt.Errorf("%w: %d", ErrUnknownValueTag, v.Tag)
	}
}

func writeLenPrefixed(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// ReadValue decodes one Value from r: a tag byte followed by its
// payload. It returns a typed error on an unknown tag, a short read,
// or (for String) invalid UTF-8.
func ReadValue(r io.Reader) (Value, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return Value{}, err
	}
	tag := PointType(tagBuf[0])

	switch tag {
	case TypeBoolean:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return Bool(b[0] != 0), nil
	case TypeBlob:
		data, err := readLenPrefixed(r)
		if err != nil {
			return Value{}, err
		}
		return Blob(data), nil
	case TypeString:
		data, err := readLenPrefixed(r)
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(data) {
			return Value{}, ErrInvalidUTF8
		}
		return Str(string(data)), nil
	case TypeU8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return U8(b[0]), nil
	case TypeI8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return I8(int8(b[0])), nil
	case TypeU16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return U16(binary.BigEndian.Uint16(b[:])), nil
	case TypeI16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return I16(int16(binary.BigEndian.Uint16(b[:]))), nil
	case TypeU32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return U32(binary.BigEndian.Uint32(b[:])), nil
	case TypeI32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return I32(int32(binary.BigEndian.Uint32(b[:]))), nil
	case TypeU64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return U64(binary.BigEndian.Uint64(b[:])), nil
	case TypeI64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return I64(int64(binary.BigEndian.Uint64(b[:]))), nil
	case TypeF32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return F32(math.Float32frombits(binary.BigEndian.Uint32(b[:]))), nil
	case TypeF64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Value{}, err
		}
		return F64(math.Float64frombits(binary.BigEndian.Uint64(b[:]))), nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownValueTag, tag)
	}
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return []byte{}, nil
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
