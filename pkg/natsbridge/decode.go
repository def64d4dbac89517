// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package natsbridge

import (
	"bytes"
	"fmt"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

// Sample is one decoded NATS message, ready to be handed to a Sink as
// a synthetic broker Update.
type Sample struct {
	FullName string
	Value    wire.Value
}

// rawFramePrefix marks a message as this bridge's own raw framing
// (one length-prefixed StringKey followed by a wire.Value), rather
// than InfluxDB line protocol. It is chosen to be invalid as the first
// byte of a line-protocol measurement name.
const rawFramePrefix = 0x00

// Decode interprets data as either:
//   - this bridge's raw framing: a leading rawFramePrefix byte, then a
//     StringKey-style length-prefixed key, then one wire.Value; or
//   - one or more InfluxDB line-protocol lines, each decoded as
//     "<point/full/name> value=<v>".
//
// Line-protocol measurement+tags are joined with '/' to form the point
// full-name, mirroring the '/'-joined namespace paths C3 produces, so
// bridged samples land on point names a RegisterSchema-declared schema
// can actually match.
func Decode(data []byte) ([]Sample, error) {
	if len(data) > 0 && data[0] == rawFramePrefix {
		return decodeRawFrame(data[1:])
	}
	return decodeLineProtocol(data)
}

func decodeRawFrame(data []byte) ([]Sample, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("natsbridge: raw frame too short")
	}
	n := int(data[0])
	if len(data) < 1+n {
		return nil, fmt.Errorf("natsbridge: raw frame key truncated")
	}
	key, err := wire.NewStringKey(string(data[1 : 1+n]))
	if err != nil {
		return nil, fmt.Errorf("natsbridge: raw frame key: %w", err)
	}

	value, err := wire.ReadValue(bytes.NewReader(data[1+n:]))
	if err != nil {
		return nil, fmt.Errorf("natsbridge: raw frame value: %w", err)
	}

	return []Sample{{FullName: key.String(), Value: value}}, nil
}

func decodeLineProtocol(data []byte) ([]Sample, error) {
	dec := lineprotocol.NewDecoderWithBytes(data)
	var samples []Sample

	for dec.Next() {
		measurement, err := dec.Measurement()
		if err != nil {
			return nil, err
		}
		fullName := string(measurement)

		for {
			key, val, err := dec.NextTag()
			if err != nil {
				return nil, err
			}
			if key == nil {
				break
			}
			fullName += "/" + string(val)
		}

		var value wire.Value
		haveValue := false
		for {
			key, val, err := dec.NextField()
			if err != nil {
				return nil, err
			}
			if key == nil {
				break
			}
			if string(key) != "value" {
				continue
			}
			switch val.Kind() {
			case lineprotocol.Float:
				value = wire.F64(val.FloatV())
			case lineprotocol.Int:
				value = wire.I64(val.IntV())
			case lineprotocol.Uint:
				value = wire.U64(val.UintV())
			case lineprotocol.String:
				value = wire.Str(val.StringV())
			case lineprotocol.Bool:
				value = wire.Bool(val.BoolV())
			default:
				return nil, fmt.Errorf("natsbridge: unsupported field kind %v", val.Kind())
			}
			haveValue = true
		}

		// Timestamp is accepted but not surfaced on Sample: the broker
		// has no time-series concept (see Non-goals), so the bridge
		// only needs the current value, not when it was sampled.
		if _, err := dec.Time(lineprotocol.Second, time.Now()); err != nil {
			return nil, err
		}

		if haveValue {
			samples = append(samples, Sample{FullName: fullName, Value: value})
		}
	}

	return samples, nil
}
