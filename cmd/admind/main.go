// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command admind runs a single administrative circuit service node:
// shared admin state (C6), the lifecycle state machine (C7/C8), and the
// HTTP/WS intake surface (C9), wired together the way the teacher's own
// pkg/go/cmd/server/main.go wires a ConsensusServer around a flag-parsed
// configuration and a single net/http.Server with explicit timeouts.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/latticemesh/circuitadmin/consensusadapter"
	"github.com/latticemesh/circuitadmin/directory"
	"github.com/latticemesh/circuitadmin/internal/logging"
	"github.com/latticemesh/circuitadmin/internal/metrics"
	"github.com/latticemesh/circuitadmin/intake"
	"github.com/latticemesh/circuitadmin/network"
	"github.com/latticemesh/circuitadmin/orchestrator"
	"github.com/latticemesh/circuitadmin/service"
	"github.com/latticemesh/circuitadmin/shared"
	"github.com/luxfi/zap"
)

func main() {
	var (
		nodeID = flag.String("node-id", "admin-node-1", "this node's SplinterNode id")
		addr   = flag.String("addr", ":8901", "HTTP/WS listen address")
		k      = flag.Int("quorum-k", 0, "two-phase-commit k (0 keeps the default k=2, unanimous for a two-member circuit)")
		alpha  = flag.Int("quorum-alpha", 0, "two-phase-commit alpha-confidence (0 keeps the default alpha=2)")
		beta   = flag.Int("quorum-beta", 1, "two-phase-commit beta (validated only; the built-in oracle does not use it)")
	)
	flag.Parse()

	log := logging.New()
	defer func() {
		// logging.Logger exposes no Sync, so nothing is flushed here at
		// process exit.
		_ = log
	}()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// DefaultConfig(1) sizes the quorum for a two-member circuit (the
	// local node plus one verifier): k = alpha = 2. The flags above
	// override it for the whole process; the same quorum applies to
	// every circuit.
	quorum := consensusadapter.DefaultConfig(1)
	if *k > 0 {
		quorum.K = *k
	}
	if *alpha > 0 {
		quorum.AlphaConfidence = *alpha
	}
	quorum.Beta = *beta
	if err := quorum.Valid(); err != nil {
		log.Error("invalid quorum configuration", zap.Error(err))
		os.Exit(1)
	}

	dir := directory.NewStore(directory.NewMemKV())
	orch := orchestrator.NewLocal(log)
	netRegistry := network.NewInMemoryRegistry()
	inquisitor := network.NewLocalAuthorizationInquisitor()

	sharedState := shared.New(*nodeID, netRegistry, dir, orch, log, m)

	svc := service.New(*nodeID, sharedState, quorum, log, m)
	netRegistry.RegisterInbox(sharedState.ServiceID(), svc.HandleMessage)

	if err := svc.Start(netRegistry, inquisitor); err != nil {
		log.Error("failed to start admin service", zap.Error(err))
		os.Exit(1)
	}

	handler := intake.New(sharedState, log)

	mux := handler.Router()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("admin circuit service listening",
		zap.String("node_id", *nodeID),
		zap.String("service_id", sharedState.ServiceID()),
		zap.String("addr", *addr),
	)
	fmt.Fprintf(os.Stdout, "admind: %s listening on %s\n", sharedState.ServiceID(), *addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}
