// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensusadapter bridges the admin service's events to a
// pluggable consensus engine (spec §4.7, C7), the way the teacher's
// root package hands Consensus/Binary/Unary instances out through a
// Factory parameterized on Parameters (interfaces.go). The admin core
// only needs an oracle that, given observed votes over a proposal's
// required_verifiers, eventually emits Accepted or Rejected; this
// package supplies a concrete in-process two-phase-commit
// implementation of that oracle alongside the Engine interface any
// other pluggable engine must satisfy.
package consensusadapter

import (
	"fmt"
	"sync"

	"github.com/luxfi/math/set"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/internal/logging"
	"github.com/latticemesh/circuitadmin/internal/metrics"
	"github.com/latticemesh/circuitadmin/pending"
)

// UpdateKind tags a ProposalUpdate.
type UpdateKind int

const (
	ProposalReceived UpdateKind = iota
	ProposalAccepted
	ProposalRejected
	ConsensusMessage
)

// ProposalUpdate is the event vocabulary admin <-> consensus exchange
// (spec §4.7).
type ProposalUpdate struct {
	Kind UpdateKind

	// Set when Kind == ProposalReceived.
	Proposal pending.Proposal
	FromPeer string

	// Set when Kind == ProposalAccepted or ProposalRejected.
	ProposalID pending.ProposalID

	// Set when Kind == ConsensusMessage: opaque bytes to relay to peers,
	// or inbound bytes just decoded from the wire.
	Bytes []byte
}

// Callbacks is the slice of the admin shared state (C6) the engine
// calls back into once it reaches a decision. Declaring it here rather
// than importing package shared avoids a shared<->consensusadapter
// import cycle, mirroring the "lifetime-extending handle" ownership
// note in spec §9: the adapter holds this handle, not the other way
// around.
type Callbacks interface {
	OnProposalAccepted(id pending.ProposalID) error
	OnProposalRejected(id pending.ProposalID) error
}

// Engine is what lives behind the adapter: an in-process two-phase
// commit oracle, or any pluggable engine satisfying the same contract
// (spec §4.7).
type Engine interface {
	SendUpdate(update ProposalUpdate) error
	HandleMessage(consensusBytes []byte) error
	Shutdown() error
}

// tally tracks per-proposal votes toward a two-phase-commit decision,
// using the same node-id set shape the teacher uses for peer sets
// (engine/core/interfaces.go's set.Set[ids.NodeID]) rather than a
// hand-rolled map[string]struct{}.
type tally struct {
	requiredVerifiers set.Set[string]
	accepted          set.Set[string]
	rejected          set.Set[string]
}

// Manager is the concrete Engine: a minimal two-phase-commit style
// oracle keyed on the admin service id, matching the teacher's pattern
// of constructing a manager with the owning service's id plus a handle
// back to shared state (consensus.go AdminConsensusManager::new in the
// source this was distilled from).
type Manager struct {
	serviceID string
	callbacks Callbacks
	config    Config
	log       logging.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	tallies map[pending.ProposalID]*tally
	closed  bool
}

// NewManager constructs the consensus adapter. serviceID is the owning
// admin service's id (admin::<node_id>); callbacks is the handle used
// to report decisions back into the shared state.
func NewManager(serviceID string, callbacks Callbacks, config Config, log logging.Logger, m *metrics.Metrics) (*Manager, error) {
	if err := config.Valid(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NoOp()
	}
	return &Manager{
		serviceID: serviceID,
		callbacks: callbacks,
		config:    config,
		log:       log,
		metrics:   m,
		tallies:   make(map[pending.ProposalID]*tally),
	}, nil
}

// SendUpdate drives the oracle with a new event.
func (m *Manager) SendUpdate(update ProposalUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("%w: consensus adapter shut down", adminerrors.ErrUnableToHandleMessage)
	}

	switch update.Kind {
	case ProposalReceived:
		m.registerLocked(update.Proposal)
		return nil
	case ProposalAccepted:
		return m.recordVoteLocked(update.ProposalID, true)
	case ProposalRejected:
		return m.recordVoteLocked(update.ProposalID, false)
	case ConsensusMessage:
		// Opaque relay traffic for a pluggable engine; the built-in
		// two-phase oracle has no wire messages of its own to send.
		return nil
	default:
		return fmt.Errorf("%w: unknown proposal update kind %d", adminerrors.ErrUnableToHandleMessage, update.Kind)
	}
}

// HandleMessage accepts inbound consensus traffic relayed by a peer
// admin service. The built-in two-phase oracle does not decode these
// bytes; it only logs their arrival. Its decisions are driven by votes
// instead; see shared.HandleVote for the mechanism that actually drives
// this engine to a decision.
func (m *Manager) HandleMessage(consensusBytes []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("%w: consensus adapter shut down", adminerrors.ErrUnableToHandleMessage)
	}
	m.log.Debug("received consensus message")
	return nil
}

// Shutdown halts the engine: no further updates are accepted, and its
// handle on the callbacks is released.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.callbacks = nil
	return nil
}

// registerLocked seeds a tally for a newly received proposal, keyed on
// its declared required_verifiers (spec §3 Proposal.consensus_data).
func (m *Manager) registerLocked(p pending.Proposal) {
	if _, exists := m.tallies[p.ID]; exists {
		return
	}
	required := set.NewSet[string](0)
	required.Add(SplitVerifiers(p.ConsensusData)...)
	m.tallies[p.ID] = &tally{
		requiredVerifiers: required,
		accepted:          set.NewSet[string](0),
		rejected:          set.NewSet[string](0),
	}
}

// RecordVote tallies a single voter's decision on a proposal and, once
// quorum is reached either way, emits the corresponding callback and
// clears the tally. It is exported so the intake vote endpoint (spec §9
// supplemented feature) can drive the oracle directly.
func (m *Manager) RecordVote(id pending.ProposalID, voter string, accept bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordVoteFromLocked(id, voter, accept)
}

func (m *Manager) recordVoteLocked(id pending.ProposalID, accept bool) error {
	return m.recordVoteFromLocked(id, m.serviceID, accept)
}

func (m *Manager) recordVoteFromLocked(id pending.ProposalID, voter string, accept bool) error {
	t, ok := m.tallies[id]
	if !ok {
		t = &tally{
			requiredVerifiers: set.NewSet[string](0),
			accepted:          set.NewSet[string](0),
			rejected:          set.NewSet[string](0),
		}
		m.tallies[id] = t
	}

	if accept {
		t.accepted.Add(voter)
	} else {
		t.rejected.Add(voter)
	}

	total := t.accepted.Len() + t.rejected.Len()
	if t.accepted.Len() >= m.config.AlphaConfidence {
		delete(m.tallies, id)
		return m.deliverLocked(id, true)
	}
	if total >= m.config.K && t.rejected.Len() > 0 {
		delete(m.tallies, id)
		return m.deliverLocked(id, false)
	}
	return nil
}

func (m *Manager) deliverLocked(id pending.ProposalID, accept bool) error {
	if m.callbacks == nil {
		return fmt.Errorf("%w: consensus adapter shut down", adminerrors.ErrUnableToHandleMessage)
	}
	if accept {
		if m.metrics != nil {
			m.metrics.ProposalsAccepted.Inc()
		}
		return m.callbacks.OnProposalAccepted(id)
	}
	if m.metrics != nil {
		m.metrics.ProposalsRejected.Inc()
	}
	return m.callbacks.OnProposalRejected(id)
}

func SplitVerifiers(consensusData []byte) []string {
	if len(consensusData) == 0 {
		return nil
	}
	var out []string
	for _, part := range splitNUL(consensusData) {
		if len(part) > 0 {
			out = append(out, string(part))
		}
	}
	return out
}

func splitNUL(data []byte) [][]byte {
	var parts [][]byte
	start := 0
	for i, b := range data {
		if b == 0 {
			parts = append(parts, data[start:i])
			start = i + 1
		}
	}
	parts = append(parts, data[start:])
	return parts
}

// EncodeVerifiers joins verifier node ids into the NUL-separated
// consensus_data byte form Proposal.ConsensusData carries (spec §3).
func EncodeVerifiers(verifiers []string) []byte {
	out := make([]byte, 0)
	for i, v := range verifiers {
		if i > 0 {
			out = append(out, 0)
		}
		out = append(out, []byte(v)...)
	}
	return out
}
