// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package orchestrator defines the ServiceOrchestrator collaborator
// (spec §6) the admin core asks to start/stop local circuit roster
// services once a circuit commits. The orchestrator itself is out of
// scope (spec §1); this package also provides a concrete local
// implementation that runs each started service definition as a
// trivial goroutine-backed stub, enough to exercise the orchestration
// hand-off end to end without a real service runtime.
package orchestrator

import (
	"fmt"
	"sync"

	"github.com/latticemesh/circuitadmin/internal/logging"
)

// ServiceDefinition is the minimal shape the orchestrator needs to
// start a roster service: its id, type, and the circuit it belongs to.
type ServiceDefinition struct {
	ServiceID   string
	ServiceType string
	CircuitID   string
}

// Orchestrator starts and stops local circuit roster services (spec §6
// ServiceOrchestrator).
type Orchestrator interface {
	StartService(def ServiceDefinition) error
	StopService(serviceID string) error
}

// Local is a single-process Orchestrator: starting a service spins up a
// goroutine that runs until StopService closes its done channel.
type Local struct {
	mu      sync.Mutex
	running map[string]chan struct{}
	log     logging.Logger
}

// NewLocal creates a Local orchestrator.
func NewLocal(log logging.Logger) *Local {
	if log == nil {
		log = logging.NoOp()
	}
	return &Local{running: make(map[string]chan struct{}), log: log}
}

// StartService starts def's goroutine if not already running.
func (l *Local) StartService(def ServiceDefinition) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, running := l.running[def.ServiceID]; running {
		return fmt.Errorf("orchestrator: service %q already running", def.ServiceID)
	}

	done := make(chan struct{})
	l.running[def.ServiceID] = done
	go func() {
		<-done
	}()
	return nil
}

// StopService stops a previously started service.
func (l *Local) StopService(serviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	done, running := l.running[serviceID]
	if !running {
		return fmt.Errorf("orchestrator: service %q not running", serviceID)
	}
	close(done)
	delete(l.running, serviceID)
	return nil
}

// Running reports whether serviceID is currently started, for tests.
func (l *Local) Running(serviceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, running := l.running[serviceID]
	return running
}
