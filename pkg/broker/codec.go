// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broker

import (
	"bytes"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

// encodeValue serializes v with the C1 value codec before handing the
// bytes to the store backend, keeping every backend a pure
// bytes-in/bytes-out KV as SPEC_FULL.md §4.6 requires.
func encodeValue(v wire.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
