// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// MaxKeyLength is the largest StringKey the wire format can carry: the
// key length prefix is a single byte.
const MaxKeyLength = 255

// ErrKeyTooLong is returned when a key exceeds MaxKeyLength bytes.
var ErrKeyTooLong = fmt.Errorf("wire: key exceeds %d bytes", MaxKeyLength)

// ErrKeyNotASCII is returned when a key contains a non-ASCII byte.
var ErrKeyNotASCII = fmt.Errorf("wire: key is not ASCII")

// StringKey is an ASCII-only, lowercase-normalized string addressing a
// point, with length <= MaxKeyLength. Construction always normalizes,
// so NewStringKey(s) == NewStringKey(NewStringKey(s).String()).
type StringKey string

// NewStringKey validates and lowercases s into a StringKey.
func NewStringKey(s string) (StringKey, error) {
	if len(s) > MaxKeyLength {
		return "", ErrKeyTooLong
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return "", ErrKeyNotASCII
		}
	}
	return StringKey(strings.ToLower(s)), nil
}

func (k StringKey) String() string { return string(k) }

// ConnectionID is an 8-byte random identifier used internally to name
// connections. It never appears on the wire between clients and the
// broker; it exists purely to key the broker's connection table.
type ConnectionID [8]byte

// NewConnectionID mints a fresh random ConnectionID.
func NewConnectionID() (ConnectionID, error) {
	var id ConnectionID
	if _, err := rand.Read(id[:]); err != nil {
		return ConnectionID{}, err
	}
	return id, nil
}

func (id ConnectionID) String() string {
	return hex.EncodeToString(id[:])
}
