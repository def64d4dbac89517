// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics instruments the broker with a dedicated Prometheus
// registry, exposed by pkg/httpapi's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxpoint-io/broker/pkg/wire"
)

// Metrics holds every counter/gauge the broker updates as it runs.
// Field names match what C7-C9 call: connections open/accepted,
// packets handled per tag, updates accepted/rejected, and fan-out
// deliveries.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsOpen   prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	PacketsTotal      *prometheus.CounterVec
	UpdatesAccepted   prometheus.Counter
	UpdatesRejected   *prometheus.CounterVec
	FanOutDeliveries  prometheus.Counter
	FanOutFailures    prometheus.Counter
}

// New builds a Metrics with its own registry (not the global
// prometheus.DefaultRegisterer), so several Metrics in the same
// process — as pkg/httpapi's tests create one per test — don't collide
// on metric names.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "broker_connections_open",
			Help: "Number of currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_connections_accepted_total",
			Help: "Total number of connections ever accepted.",
		}),
		PacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_packets_total",
			Help: "Total number of packets handled, by tag.",
		}, []string{"tag"}),
		UpdatesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_updates_accepted_total",
			Help: "Total number of Update packets that passed validation and were stored.",
		}),
		UpdatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_updates_rejected_total",
			Help: "Total number of Update packets rejected, by reason.",
		}, []string{"reason"}),
		FanOutDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_fanout_deliveries_total",
			Help: "Total number of Update packets delivered to subscribed connections.",
		}),
		FanOutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_fanout_failures_total",
			Help: "Total number of fan-out writes that failed and closed their connection.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsOpen,
		m.ConnectionsTotal,
		m.PacketsTotal,
		m.UpdatesAccepted,
		m.UpdatesRejected,
		m.FanOutDeliveries,
		m.FanOutFailures,
	)

	return m
}

// PacketTagLabel renders a wire.PacketTag as the label value
// PacketsTotal is keyed by.
func PacketTagLabel(tag wire.PacketTag) string {
	return tag.String()
}
