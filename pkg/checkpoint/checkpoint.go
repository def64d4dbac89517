// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package checkpoint periodically snapshots a store.Store's key set to
// an Avro container file, mirroring pkg/metricstore's avroHelper.go/
// checkpoint.go checkpointing but for the broker's point/value model
// rather than time-series metric buffers. It is a warm-restart hint
// and an offline-inspection aid, not part of the wire protocol: no
// Store backend depends on it, and the broker's behavior is unchanged
// if checkpointing is disabled.
package checkpoint

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linkedin/goavro/v2"

	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/store"
)

// recordSchema is fixed, unlike the teacher's per-run generated metric
// schema: a point's value is one of 13 wire-tagged types, not always a
// double, so checkpoint files carry the encoded bytes as-is (store
// already holds the wire-encoded form) rather than re-deriving a
// per-key Avro field.
const recordSchema = `{
	"type": "record",
	"name": "Point",
	"fields": [
		{"name": "key", "type": "string"},
		{"name": "value", "type": "bytes"}
	]
}`

// Exporter walks a store's key set and writes every key/value pair to
// a new Avro OCF file under dir on each Export call.
type Exporter struct {
	st    store.Store
	dir   string
	codec *goavro.Codec
}

// NewExporter prepares an Exporter that writes checkpoint files under
// dir, creating dir if it does not already exist.
func NewExporter(st store.Store, dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: creating %s: %w", dir, err)
	}
	codec, err := goavro.NewCodec(recordSchema)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: compiling schema: %w", err)
	}
	return &Exporter{st: st, dir: dir, codec: codec}, nil
}

// Export writes one checkpoint file named by the current time. It
// reads every key via Store.Keys/GetValue; a key that disappears
// between the two calls (overwritten-then-deleted is not possible
// today, since no Store backend deletes, but a future one might) is
// simply skipped rather than treated as an error.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	keys, err := e.st.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: listing keys: %w", err)
	}

	records := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		data, ok, err := e.st.GetValue(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("checkpoint: reading %q: %w", key, err)
		}
		if !ok {
			continue
		}
		records = append(records, map[string]any{"key": key, "value": data})
	}

	if len(records) == 0 {
		return 0, nil
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%d.avro", time.Now().Unix()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           e.codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return 0, fmt.Errorf("checkpoint: creating OCF writer: %w", err)
	}
	if err := writer.Append(records); err != nil {
		return 0, fmt.Errorf("checkpoint: appending records: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("checkpoint: flushing %s: %w", path, err)
	}

	applog.Infof("checkpoint: wrote %d points to %s", len(records), path)
	return len(records), nil
}
