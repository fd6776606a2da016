// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service implements the admin service lifecycle (spec §4.8,
// C8): the Created→Started→Stopped→Destroyed state machine that
// registers with the network, starts and stops the consensus adapter,
// and dispatches inbound wire messages into the admin shared state.
package service

import (
	"fmt"
	"sync"

	"github.com/luxfi/zap"

	"github.com/latticemesh/circuitadmin/consensusadapter"
	"github.com/latticemesh/circuitadmin/digest"
	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/internal/logging"
	"github.com/latticemesh/circuitadmin/internal/metrics"
	"github.com/latticemesh/circuitadmin/network"
	"github.com/latticemesh/circuitadmin/pending"
	"github.com/latticemesh/circuitadmin/shared"
	"github.com/latticemesh/circuitadmin/types"
	"github.com/latticemesh/circuitadmin/wire"
)

// Lifecycle is the service's state (spec §4.8).
type Lifecycle int

const (
	Created Lifecycle = iota
	Started
	Stopped
	Destroyed
)

func (l Lifecycle) String() string {
	switch l {
	case Created:
		return "Created"
	case Started:
		return "Started"
	case Stopped:
		return "Stopped"
	case Destroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Service drives one node's admin service through its lifecycle,
// wiring the shared state (C6) to the network registry and the
// consensus adapter (C7).
type Service struct {
	nodeID    string
	serviceID string

	sharedState     *shared.State
	consensusConfig consensusadapter.Config
	log             logging.Logger
	metrics         *metrics.Metrics

	mu        sync.Mutex
	lifecycle Lifecycle
	consensus *consensusadapter.Manager
}

// New constructs a service in the Created state. sharedState must have
// been built for the same nodeID (spec §3 service_id invariant).
func New(nodeID string, sharedState *shared.State, consensusConfig consensusadapter.Config, log logging.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logging.NoOp()
	}
	return &Service{
		nodeID:          nodeID,
		serviceID:       types.AdminServiceID(nodeID),
		sharedState:     sharedState,
		consensusConfig: consensusConfig,
		log:             log,
		metrics:         m,
		lifecycle:       Created,
	}
}

// State returns the current lifecycle state.
func (s *Service) State() Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle
}

// Start requires Created or Stopped; it obtains a network sender from
// registry, stores it in the shared state, constructs and starts the
// consensus adapter, and registers the shared state's authorization
// callback with inquisitor (spec §4.8 start; spec §6
// AuthorizationInquisitor.register_callback).
func (s *Service) Start(registry network.Registry, inquisitor network.AuthorizationInquisitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != Created && s.lifecycle != Stopped {
		return adminerrors.ErrAlreadyStarted
	}

	sender, err := registry.Connect(s.serviceID)
	if err != nil {
		return fmt.Errorf("%w: connecting %s: %v", adminerrors.ErrTransportError, s.serviceID, err)
	}

	mgr, err := consensusadapter.NewManager(s.serviceID, s.sharedState, s.consensusConfig, s.log, s.metrics)
	if err != nil {
		return err
	}

	if err := s.sharedState.SetNetworkSender(sender); err != nil {
		return err
	}
	if err := s.sharedState.SetConsensus(mgr); err != nil {
		return err
	}
	inquisitor.RegisterCallback(s.sharedState.OnAuthorizationChange)

	s.consensus = mgr
	s.lifecycle = Started
	return nil
}

// Stop requires Started; it disconnects from the registry, shuts down
// the consensus adapter, and clears the shared state's network sender
// (spec §4.8 stop).
func (s *Service) Stop(registry network.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != Started {
		return adminerrors.ErrNotStarted
	}

	if s.consensus != nil {
		if err := s.consensus.Shutdown(); err != nil {
			return err
		}
	}
	if err := registry.Disconnect(s.serviceID); err != nil {
		return fmt.Errorf("%w: disconnecting %s: %v", adminerrors.ErrTransportError, s.serviceID, err)
	}
	if err := s.sharedState.SetConsensus(nil); err != nil {
		return err
	}
	if err := s.sharedState.SetNetworkSender(nil); err != nil {
		return err
	}

	s.consensus = nil
	s.lifecycle = Stopped
	return nil
}

// Destroy requires Stopped; it drops all retained state (spec §4.8
// destroy).
func (s *Service) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != Stopped {
		return adminerrors.ErrNotStopped
	}
	s.lifecycle = Destroyed
	return nil
}

// HandleMessage requires Started; it decodes the envelope and
// dispatches CONSENSUS_MESSAGE to the adapter, or for PROPOSED_CIRCUIT
// derives the proposal, inserts it into the pending table, and
// forwards ProposalReceived to the adapter tagged with the sender
// (spec §4.8 handle_message).
func (s *Service) HandleMessage(messageBytes []byte, senderServiceID string) error {
	s.mu.Lock()
	if s.lifecycle != Started {
		s.mu.Unlock()
		return adminerrors.ErrNotStarted
	}
	consensus := s.consensus
	s.mu.Unlock()

	msg, err := wire.DecodeAdminMessage(messageBytes)
	if err != nil {
		s.log.Warn("dropping undecodable admin message", zap.Error(err))
		return nil
	}

	switch msg.MessageType {
	case wire.MessageTypeConsensusMessage:
		if err := consensus.HandleMessage(msg.ConsensusMessage); err != nil {
			return fmt.Errorf("%w: %v", adminerrors.ErrUnableToHandleMessage, err)
		}
		return nil

	case wire.MessageTypeProposedCircuit:
		return s.handleProposedCircuit(msg, senderServiceID, consensus)

	default:
		s.log.Warn("dropping admin message of unhandled type")
		return nil
	}
}

func (s *Service) handleProposedCircuit(msg wire.AdminMessage, senderServiceID string, consensus *consensusadapter.Manager) error {
	body := msg.ProposedCircuit
	sum, err := digest.Sum(body.CircuitPayload)
	if err != nil {
		s.log.Warn("dropping proposed-circuit message with bad digest", zap.Error(err))
		return nil
	}
	id := pending.ProposalID(sum)

	consensusData := make([]byte, 0)
	verifiers := make([]string, len(body.RequiredVerifiers))
	for i, v := range body.RequiredVerifiers {
		verifiers[i] = string(v)
	}
	consensusData = consensusadapter.EncodeVerifiers(verifiers)

	proposal := pending.Proposal{ID: id, Summary: body.ExpectedHash, ConsensusData: consensusData}
	entry := pending.Entry{Proposal: proposal, Payload: body.CircuitPayload}

	circuitID := proposalCircuitID(body.CircuitPayload)
	if err := s.sharedState.AddPendingConsensusProposal(circuitID, entry); err != nil {
		return fmt.Errorf("%w: %v", adminerrors.ErrUnableToHandleMessage, err)
	}

	if err := consensus.SendUpdate(consensusadapter.ProposalUpdate{
		Kind:     consensusadapter.ProposalReceived,
		Proposal: proposal,
		FromPeer: senderServiceID,
	}); err != nil {
		return fmt.Errorf("%w: %v", adminerrors.ErrUnableToHandleMessage, err)
	}
	return nil
}

// proposalCircuitID recovers the circuit_id used to key the pending
// table's at-most-one-per-circuit constraint. A PROPOSED_CIRCUIT
// message's payload is always a CircuitCreateRequest (spec §4.2); on
// any decode failure the digest itself is used as a unique fallback key.
func proposalCircuitID(payload []byte) string {
	decoded, err := wire.DecodeCircuitManagementPayload(payload)
	if err != nil || decoded.CreateRequest == nil {
		sum, sumErr := digest.Sum(payload)
		if sumErr != nil {
			return ""
		}
		return digest.HexEncode(sum)
	}
	return decoded.CreateRequest.CircuitID
}
