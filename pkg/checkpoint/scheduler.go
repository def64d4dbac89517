// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	applog "github.com/fluxpoint-io/broker/pkg/log"
)

// Scheduler runs an Exporter on a fixed interval using gocron, the
// same scheduling library the teacher's internal/taskManager registers
// its periodic jobs with.
type Scheduler struct {
	sched    gocron.Scheduler
	exporter *Exporter
}

// NewScheduler creates a Scheduler that runs exporter.Export every
// interval, starting from the first tick (no immediate run on Start).
func NewScheduler(exporter *Exporter, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("checkpoint: scheduler interval must be positive, got %s", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("checkpoint: creating scheduler: %w", err)
	}

	sc := &Scheduler{sched: s, exporter: exporter}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			n, err := exporter.Export(context.Background())
			if err != nil {
				applog.Errorf("checkpoint: export failed: %v", err)
				return
			}
			applog.Infof("checkpoint: exported %d points", n)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: registering job: %w", err)
	}

	return sc, nil
}

// Start begins running the scheduled export job in the background.
func (s *Scheduler) Start() { s.sched.Start() }

// Shutdown stops the scheduler, waiting for any in-flight export to
// finish.
func (s *Scheduler) Shutdown() error { return s.sched.Shutdown() }
