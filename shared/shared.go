// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shared implements the admin shared state (spec §4.6, C6): the
// single serialized critical section guarding the subscriber registry,
// pending-proposal table, authorization tracker, and network-sender
// handle. Every mutation of admin state passes through State's lock.
// Besides the enqueue on the network sender, the lock is also held
// across PeerConnector.ConnectPeer calls, the directory lookup in
// ProposeCircuit, and the directory commit and orchestrator starts in
// OnProposalAccepted.
package shared

import (
	"fmt"
	"sync"

	"github.com/luxfi/zap"

	"github.com/latticemesh/circuitadmin/authz"
	"github.com/latticemesh/circuitadmin/consensusadapter"
	"github.com/latticemesh/circuitadmin/digest"
	"github.com/latticemesh/circuitadmin/directory"
	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/internal/logging"
	"github.com/latticemesh/circuitadmin/internal/metrics"
	"github.com/latticemesh/circuitadmin/network"
	"github.com/latticemesh/circuitadmin/orchestrator"
	"github.com/latticemesh/circuitadmin/pending"
	"github.com/latticemesh/circuitadmin/subscriber"
	"github.com/latticemesh/circuitadmin/types"
	"github.com/latticemesh/circuitadmin/wire"
)

// queuedSend is a proposal whose broadcast to a subset of members is
// blocked on their authorization (spec §4.6 propose_circuit, §4.5).
type queuedSend struct {
	proposal  pending.Proposal
	payload   []byte
	peers     []string
	endpoints map[string]string // peer node id -> routing endpoint
}

// State is the admin shared state (spec §4.6). The zero value is not
// usable; use New.
type State struct {
	nodeID    string
	serviceID string

	log     logging.Logger
	metrics *metrics.Metrics

	pendingTable *pending.Table
	subscribers  *subscriber.Registry
	authzTracker *authz.Tracker
	peerConn     network.PeerConnector
	dir          directory.CircuitDirectory
	orch         orchestrator.Orchestrator

	mu       sync.Mutex
	poisoned bool
	sender   network.Sender // nil unless Started (spec §3 invariant)
	consensus *consensusadapter.Manager
	queued    map[string]queuedSend
}

// New constructs the admin shared state for nodeID. The network sender
// and consensus adapter are attached later, by the service lifecycle's
// Start (spec §4.8).
func New(
	nodeID string,
	peerConn network.PeerConnector,
	dir directory.CircuitDirectory,
	orch orchestrator.Orchestrator,
	log logging.Logger,
	m *metrics.Metrics,
) *State {
	if log == nil {
		log = logging.NoOp()
	}
	return &State{
		nodeID:       nodeID,
		serviceID:    types.AdminServiceID(nodeID),
		log:          log,
		metrics:      m,
		pendingTable: pending.New(),
		subscribers:  subscriber.New(log),
		authzTracker: authz.New(),
		peerConn:     peerConn,
		dir:          dir,
		orch:         orch,
		queued:       make(map[string]queuedSend),
	}
}

// ServiceID returns "admin::<node_id>" (spec §3, §8 invariant).
func (s *State) ServiceID() string { return s.serviceID }

// lock acquires the critical section, failing with ErrPoisonedLock if a
// prior operation panicked while holding it (spec §5).
func (s *State) lock() error {
	s.mu.Lock()
	if s.poisoned {
		s.mu.Unlock()
		return adminerrors.ErrPoisonedLock
	}
	return nil
}

func (s *State) unlock() { s.mu.Unlock() }

// poison marks the lock unusable; called from the recover() in
// ProposeCircuit, AddPendingConsensusProposal, OnAuthorizationChange,
// OnProposalAccepted, OnProposalRejected and AddSubscriber, so a panic
// in one of them never leaves readers on a lock whose invariants might
// be broken (spec §5 "Lock poisoning"). The setters, PendingContainsCircuit,
// RemoveSubscriber and HandleVote do not recover.
func (s *State) poison() {
	s.poisoned = true
}

// SetNetworkSender attaches or clears the network sender. It is called
// by the service lifecycle on Start/Stop (spec §3 invariant: sender is
// Some iff the lifecycle is Started).
func (s *State) SetNetworkSender(sender network.Sender) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	s.sender = sender
	return nil
}

// SetConsensus attaches the consensus adapter. Called by the service
// lifecycle on Start, cleared on Stop.
func (s *State) SetConsensus(c *consensusadapter.Manager) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	s.consensus = c
	return nil
}

// PendingContainsCircuit reports whether a proposal is currently
// pending for circuitID, used by callers that need to check the
// at-most-one-per-circuit invariant without a full operation (spec §3).
func (s *State) PendingContainsCircuit(circuitID string) bool {
	if s.lock() != nil {
		return false
	}
	defer s.unlock()
	return s.pendingTable.ContainsCircuit(circuitID)
}

// AuthTracker exposes the authorization tracker directly. The service
// lifecycle registers OnAuthorizationChange, not the tracker, with the
// AuthorizationInquisitor; a state change made through this handle
// updates the tracker without releasing any queued broadcast.
func (s *State) AuthTracker() *authz.Tracker { return s.authzTracker }

// ProposeCircuit validates and records a locally originated circuit
// proposal (spec §4.6).
func (s *State) ProposeCircuit(circuit types.Circuit) (err error) {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison()
			err = fmt.Errorf("%w: panic in propose_circuit: %v", adminerrors.ErrPoisonedLock, r)
		}
		s.unlock()
	}()

	if s.sender == nil {
		return adminerrors.ErrNotStarted
	}
	if s.pendingTable.ContainsCircuit(circuit.CircuitID) {
		return adminerrors.ErrAlreadyPending
	}
	if verr := circuit.Validate(); verr != nil {
		return fmt.Errorf("%w: %v", adminerrors.ErrInvalidCircuit, verr)
	}
	_, committed, lookupErr := s.dir.Lookup(circuit.CircuitID)
	if lookupErr != nil {
		return lookupErr
	}
	if committed {
		return fmt.Errorf("%w: circuit_id %q is already in the directory", adminerrors.ErrInvalidCircuit, circuit.CircuitID)
	}

	payload := types.CircuitManagementPayload{Action: types.ActionCircuitCreateRequest, CreateRequest: &circuit}
	payloadBytes, encErr := wire.EncodeCircuitManagementPayload(payload)
	if encErr != nil {
		return fmt.Errorf("%w: %v", adminerrors.ErrInvalidCircuit, encErr)
	}
	sum, dgErr := digest.Sum(payloadBytes)
	if dgErr != nil {
		return fmt.Errorf("%w: %v", adminerrors.ErrDigestError, dgErr)
	}

	others := circuit.OtherMemberIDs(s.nodeID)
	endpoints := make(map[string]string, len(circuit.Members))
	for _, m := range circuit.Members {
		endpoints[m.NodeID] = m.Endpoint
	}
	proposal := pending.Proposal{
		ID:            pending.ProposalID(sum),
		Summary:       sum[:],
		ConsensusData: consensusadapter.EncodeVerifiers(others),
	}

	if ierr := s.pendingTable.Insert(circuit.CircuitID, pending.Entry{Proposal: proposal, Payload: payloadBytes}); ierr != nil {
		return adminerrors.ErrAlreadyPending
	}
	if s.metrics != nil {
		s.metrics.ProposalsProposed.Inc()
		s.metrics.PendingProposals.Set(float64(s.pendingTable.Len()))
	}

	var authorizedNow, notYetAuthorized []string
	for _, peer := range others {
		if s.authzTracker.IsAuthorized(peer) {
			authorizedNow = append(authorizedNow, peer)
		} else {
			notYetAuthorized = append(notYetAuthorized, peer)
		}
	}

	for _, peer := range authorizedNow {
		s.sendProposedCircuit(peer, endpoints[peer], proposal, payloadBytes)
	}
	if len(notYetAuthorized) > 0 {
		key := proposalKey(proposal.ID)
		s.queued[key] = queuedSend{proposal: proposal, payload: payloadBytes, peers: notYetAuthorized, endpoints: endpoints}
		if ready := s.authzTracker.AwaitAuthorization(key, notYetAuthorized); ready {
			// Race: every peer authorized between the IsAuthorized
			// checks above and registering the waiter.
			delete(s.queued, key)
			for _, peer := range notYetAuthorized {
				s.sendProposedCircuit(peer, endpoints[peer], proposal, payloadBytes)
			}
		}
	}

	if s.consensus != nil {
		_ = s.consensus.SendUpdate(consensusadapter.ProposalUpdate{
			Kind:     consensusadapter.ProposalReceived,
			Proposal: proposal,
			FromPeer: s.serviceID,
		})
	}

	return nil
}

// sendProposedCircuit calls PeerConnector.ConnectPeer for peerNodeID
// (when a connector is set) before every send, whether or not the peer
// is already connected, then encodes and enqueues a PROPOSED_CIRCUIT
// envelope for it. Must be called with the lock held; the send itself is
// a non-blocking enqueue on the network sender (spec §5).
func (s *State) sendProposedCircuit(peerNodeID, endpoint string, proposal pending.Proposal, payload []byte) {
	if s.peerConn != nil {
		if err := s.peerConn.ConnectPeer(peerNodeID, endpoint); err != nil {
			s.log.Warn("failed to connect peer", zap.String("node_id", peerNodeID), zap.Error(err))
		}
	}

	msg := wire.AdminMessage{
		MessageType: wire.MessageTypeProposedCircuit,
		ProposedCircuit: &wire.ProposedCircuit{
			ExpectedHash:      proposal.Summary,
			CircuitPayload:    payload,
			RequiredVerifiers: verifierBytes(proposal.ConsensusData),
		},
	}
	encoded, err := wire.EncodeAdminMessage(msg)
	if err != nil {
		s.log.Error("failed to encode proposed-circuit envelope", zap.Error(err))
		return
	}
	recipient := types.AdminServiceID(peerNodeID)
	if err := s.sender.Send(recipient, encoded); err != nil {
		s.log.Warn("failed to send proposed-circuit envelope", zap.String("recipient", recipient), zap.Error(err))
	}
}

func verifierBytes(consensusData []byte) [][]byte {
	verifiers := consensusadapter.SplitVerifiers(consensusData)
	out := make([][]byte, len(verifiers))
	for i, v := range verifiers {
		out[i] = []byte(v)
	}
	return out
}

func proposalKey(id pending.ProposalID) string {
	return string(id[:])
}

// AddPendingConsensusProposal records a proposal observed from an
// inbound PROPOSED_CIRCUIT envelope (spec §4.6
// add_pending_consensus_proposal). It is idempotent on an identical id
// and rejects a mismatched-payload collision.
func (s *State) AddPendingConsensusProposal(circuitID string, entry pending.Entry) (err error) {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison()
			err = fmt.Errorf("%w: panic in add_pending_consensus_proposal: %v", adminerrors.ErrPoisonedLock, r)
		}
		s.unlock()
	}()

	if ierr := s.pendingTable.InsertIdempotent(circuitID, entry); ierr != nil {
		return ierr
	}
	if s.metrics != nil {
		s.metrics.PendingProposals.Set(float64(s.pendingTable.Len()))
	}
	return nil
}

// OnAuthorizationChange updates the tracker and, on a transition to
// Authorized, drains every proposal whose member set just became fully
// authorized (spec §4.6 on_authorization_change). Per spec §9's
// callback-in-lock hazard, the caller must invoke this from outside any
// lock of its own (e.g. a dedicated authorization-dispatch goroutine);
// State takes its own lock here.
func (s *State) OnAuthorizationChange(peerID string, state authz.PeerAuthorizationState) (err error) {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison()
			err = fmt.Errorf("%w: panic in on_authorization_change: %v", adminerrors.ErrPoisonedLock, r)
		}
		s.unlock()
	}()

	released := s.authzTracker.OnStateChange(peerID, state)
	for _, key := range released {
		qs, ok := s.queued[key]
		if !ok {
			continue
		}
		delete(s.queued, key)
		for _, peer := range qs.peers {
			s.sendProposedCircuit(peer, qs.endpoints[peer], qs.proposal, qs.payload)
		}
	}
	return nil
}

// OnProposalAccepted commits the pending proposal's circuit, starts the
// local roster's services, and notifies subscribers (spec §4.6
// on_proposal_accepted). It implements consensusadapter.Callbacks.
func (s *State) OnProposalAccepted(id pending.ProposalID) (err error) {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison()
			err = fmt.Errorf("%w: panic in on_proposal_accepted: %v", adminerrors.ErrPoisonedLock, r)
		}
		s.unlock()
	}()

	entry, found := s.pendingTable.Get(id)
	if !found {
		return adminerrors.ErrProposalNotFound
	}

	payload, decErr := wire.DecodeCircuitManagementPayload(entry.Payload)
	if decErr != nil {
		return fmt.Errorf("%w: %v", adminerrors.ErrInvalidCircuit, decErr)
	}
	if payload.Action != types.ActionCircuitCreateRequest || payload.CreateRequest == nil {
		return fmt.Errorf("%w: accepted proposal is not a create-circuit request", adminerrors.ErrInvalidCircuit)
	}
	circuit := *payload.CreateRequest

	// Directory-write failure: retain the pending entry and surface the
	// error to consensus for retry (spec §4.6 partial-failure policy).
	if commitErr := s.dir.Commit(circuit); commitErr != nil {
		return commitErr
	}

	// Orchestrator failures are logged and published, but never roll the
	// circuit back out of the directory (spec §4.6).
	for _, svc := range circuit.Roster {
		if !containsString(svc.AllowedNodes, s.nodeID) {
			continue
		}
		def := orchestrator.ServiceDefinition{ServiceID: svc.ServiceID, ServiceType: svc.ServiceType, CircuitID: circuit.CircuitID}
		if startErr := s.orch.StartService(def); startErr != nil {
			s.log.Error("failed to start roster service", zap.String("service_id", svc.ServiceID), zap.Error(startErr))
			if s.metrics != nil {
				s.metrics.OrchestratorErrors.Inc()
			}
			s.subscribers.Broadcast(circuit.CircuitManagementType, subscriber.Event{
				Kind:      subscriber.EventCircuitReady,
				CircuitID: circuit.CircuitID,
				Detail:    fmt.Sprintf("service %s failed to start: %v", svc.ServiceID, startErr),
			})
		}
	}

	s.subscribers.Broadcast(circuit.CircuitManagementType, subscriber.Event{
		Kind:      subscriber.EventCircuitReady,
		CircuitID: circuit.CircuitID,
	})

	if _, takeErr := s.pendingTable.Take(id); takeErr != nil {
		return takeErr
	}
	if s.metrics != nil {
		s.metrics.PendingProposals.Set(float64(s.pendingTable.Len()))
	}
	return nil
}

// OnProposalRejected removes the pending entry and notifies subscribers
// (spec §4.6 on_proposal_rejected). It implements
// consensusadapter.Callbacks.
func (s *State) OnProposalRejected(id pending.ProposalID) (err error) {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison()
			err = fmt.Errorf("%w: panic in on_proposal_rejected: %v", adminerrors.ErrPoisonedLock, r)
		}
		s.unlock()
	}()

	entry, takeErr := s.pendingTable.Take(id)
	if takeErr != nil {
		return takeErr
	}
	if s.metrics != nil {
		s.metrics.PendingProposals.Set(float64(s.pendingTable.Len()))
	}

	managementType := ""
	if payload, decErr := wire.DecodeCircuitManagementPayload(entry.Payload); decErr == nil && payload.CreateRequest != nil {
		managementType = payload.CreateRequest.CircuitManagementType
	}
	s.subscribers.Broadcast(managementType, subscriber.Event{Kind: subscriber.EventCircuitRejected})
	return nil
}

// AddSubscriber registers a new subscriber channel and returns it (spec
// §4.6 add_subscriber / §4.3).
func (s *State) AddSubscriber(managementType string) (ch *subscriber.Channel, err error) {
	if lerr := s.lock(); lerr != nil {
		return nil, lerr
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison()
			err = fmt.Errorf("%w: panic in add_subscriber: %v", adminerrors.ErrPoisonedLock, r)
		}
		s.unlock()
	}()

	ch = s.subscribers.Add(managementType)
	if s.metrics != nil {
		s.metrics.Subscribers.Set(float64(s.subscribers.Count()))
	}
	return ch, nil
}

// RemoveSubscriber unregisters ch from managementType.
func (s *State) RemoveSubscriber(managementType string, ch *subscriber.Channel) {
	if s.lock() != nil {
		return
	}
	defer s.unlock()
	s.subscribers.Remove(managementType, ch)
	if s.metrics != nil {
		s.metrics.Subscribers.Set(float64(s.subscribers.Count()))
	}
}

// HandleVote tallies a vote against the consensus adapter (spec §9: the
// vote endpoint, a stub in the distilled source, routed fully here).
func (s *State) HandleVote(proposalID pending.ProposalID, voter string, accept bool) (err error) {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	consensus := s.consensus
	s.unlock()

	if consensus == nil {
		return adminerrors.ErrNotStarted
	}
	return consensus.RecordVote(proposalID, voter, accept)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
