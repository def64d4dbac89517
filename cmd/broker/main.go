// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/joho/godotenv"

	"github.com/fluxpoint-io/broker/internal/config"
	"github.com/fluxpoint-io/broker/pkg/broker"
	"github.com/fluxpoint-io/broker/pkg/checkpoint"
	"github.com/fluxpoint-io/broker/pkg/httpapi"
	applog "github.com/fluxpoint-io/broker/pkg/log"
	"github.com/fluxpoint-io/broker/pkg/metrics"
	"github.com/fluxpoint-io/broker/pkg/natsbridge"
	"github.com/fluxpoint-io/broker/pkg/store"
	"github.com/fluxpoint-io/broker/pkg/store/boltstore"
	"github.com/fluxpoint-io/broker/pkg/store/memstore"
	"github.com/fluxpoint-io/broker/pkg/store/sqlstore"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.json", "path to the broker's JSON configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		applog.Fatalf("loading .env: %s", err.Error())
	}

	if err := config.Init(configPath); err != nil {
		applog.Fatalf("loading config: %s", err.Error())
	}
	applog.SetLogLevel(config.Keys.LogLevel)

	if config.Keys.Observability.EnableGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			applog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	st, err := openStore(config.Keys.Store)
	if err != nil {
		applog.Fatalf("opening store: %s", err.Error())
	}
	defer st.Close()

	srv, err := broker.Listen(config.Keys.ListenAddr, st)
	if err != nil {
		applog.Fatalf("listening on %s: %s", config.Keys.ListenAddr, err.Error())
	}

	m := metrics.New()
	srv.Broker.SetMetrics(m)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		applog.Infof("broker: listening at %s", srv.Addr())
		srv.Serve(ctx)
	}()

	var bridge *natsbridge.Bridge
	if config.Keys.Nats.Address != "" {
		bridge, err = natsbridge.Connect(natsbridge.Config{
			Address:       config.Keys.Nats.Address,
			Username:      config.Keys.Nats.Username,
			Password:      config.Keys.Nats.Password,
			CredsFilePath: config.Keys.Nats.CredsFilePath,
			Subjects:      config.Keys.Nats.Subjects,
		})
		if err != nil {
			applog.Fatalf("connecting to nats: %s", err.Error())
		}
		if err := bridge.Start(ctx, natsbridge.Config{Subjects: config.Keys.Nats.Subjects}, srv.Broker); err != nil {
			applog.Fatalf("starting natsbridge: %s", err.Error())
		}
	}

	var sched *checkpoint.Scheduler
	if config.Keys.Checkpoint.Enabled {
		interval, err := time.ParseDuration(config.Keys.Checkpoint.Interval)
		if err != nil {
			applog.Fatalf("parsing checkpoint interval: %s", err.Error())
		}
		exporter, err := checkpoint.NewExporter(st, config.Keys.Checkpoint.Path)
		if err != nil {
			applog.Fatalf("creating checkpoint exporter: %s", err.Error())
		}
		sched, err = checkpoint.NewScheduler(exporter, interval)
		if err != nil {
			applog.Fatalf("creating checkpoint scheduler: %s", err.Error())
		}
		sched.Start()
	}

	obsServer := httpapi.New(config.Keys.Observability.ListenAddr, srv.Broker, m)
	wg.Add(1)
	go func() {
		defer wg.Done()
		applog.Infof("observability endpoint listening at %s", config.Keys.Observability.ListenAddr)
		if err := obsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("observability endpoint: %s", err.Error())
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	applog.Info("shutting down")

	if bridge != nil {
		bridge.Close()
	}
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			applog.Errorf("shutting down checkpoint scheduler: %s", err.Error())
		}
	}
	_ = obsServer.Close()
	cancel()
	_ = srv.Close()

	wg.Wait()
	applog.Info("graceful shutdown completed")
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "bolt":
		return boltstore.Open(cfg.Path)
	case "sqlite":
		return sqlstore.Open(cfg.Path)
	default:
		return memstore.New(), nil
	}
}
