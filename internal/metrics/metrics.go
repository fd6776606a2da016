// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the admin service into a prometheus registry,
// grounded on the teacher's metrics.Metrics wrapper around
// prometheus.Registerer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the admin service's prometheus collectors.
type Metrics struct {
	Registry prometheus.Registerer

	PendingProposals   prometheus.Gauge
	Subscribers        prometheus.Gauge
	ProposalsAccepted  prometheus.Counter
	ProposalsRejected  prometheus.Counter
	ProposalsProposed  prometheus.Counter
	OrchestratorErrors prometheus.Counter
}

// New creates the admin service's metrics and registers them against reg.
// Registration errors are ignored the way the teacher's Register wrapper
// surfaces them to the caller rather than panicking; here the caller is
// process startup, which tolerates a double-registration in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		PendingProposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admin_pending_proposals",
			Help: "Number of circuit proposals awaiting a consensus decision.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admin_subscribers",
			Help: "Number of connected circuit-lifecycle subscribers.",
		}),
		ProposalsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_proposals_accepted_total",
			Help: "Total circuit proposals accepted by consensus.",
		}),
		ProposalsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_proposals_rejected_total",
			Help: "Total circuit proposals rejected by consensus.",
		}),
		ProposalsProposed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_proposals_proposed_total",
			Help: "Total circuit proposals submitted locally.",
		}),
		OrchestratorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_orchestrator_errors_total",
			Help: "Total orchestrator start/stop failures logged during commit.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.PendingProposals,
		m.Subscribers,
		m.ProposalsAccepted,
		m.ProposalsRejected,
		m.ProposalsProposed,
		m.OrchestratorErrors,
	} {
		_ = reg.Register(c)
	}

	return m
}
