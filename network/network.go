// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package network defines the collaborator interfaces the admin core
// consumes for peer transport (spec §6): the service network registry,
// the per-service sender, and the peer connector. The transport itself
// is out of scope (spec §1); this package also provides simple
// in-memory implementations suitable for wiring a single process and
// for tests, grounded on the teacher's AppSender/AppHandler split
// (engine/core/interfaces.go) between send and receive.
package network

import (
	"errors"
	"sync"

	"github.com/latticemesh/circuitadmin/authz"
)

// Sender is the non-blocking, fire-and-forget capability the admin core
// uses to deliver envelopes to a peer admin service (spec §6
// NetworkSender; admin only uses Send).
type Sender interface {
	Send(recipient string, message []byte) error
}

// Registry hands out a Sender bound to a service id, and tears the
// binding down on Disconnect (spec §6 ServiceNetworkRegistry).
type Registry interface {
	Connect(serviceID string) (Sender, error)
	Disconnect(serviceID string) error
}

// PeerConnector connects to a peer's endpoint ahead of a send, the way
// the admin core invokes it when broadcasting to a peer not yet
// connected (spec §4.6, §6).
type PeerConnector interface {
	ConnectPeer(nodeID, endpoint string) error
}

// AuthorizationCallback receives a peer's authorization state
// transition: peer_id and its new state (spec §4.5, §6).
type AuthorizationCallback func(peerID string, state authz.PeerAuthorizationState) error

// AuthorizationInquisitor is the external peer authorization source
// collaborator (spec §6: "AuthorizationInquisitor::{is_authorized(peer_id),
// register_callback(cb)}"). The admin core's authorization tracker
// (package authz, C5) subscribes to it through a single registered
// callback (spec §4.5) rather than polling; the inquisitor itself is
// out of scope (spec §1).
type AuthorizationInquisitor interface {
	IsAuthorized(peerID string) bool
	RegisterCallback(cb AuthorizationCallback)
}

// ErrUnknownRecipient is returned by the in-memory sender below when no
// inbox has been registered for the recipient.
var ErrUnknownRecipient = errors.New("network: unknown recipient")

// InboundHandler receives a raw envelope addressed to serviceID from
// sender. It mirrors Service.handle_message's (bytes, context) shape
// without importing the service package, to avoid a cycle.
type InboundHandler func(messageBytes []byte, senderServiceID string) error

// InMemoryRegistry is a single-process Registry/PeerConnector double:
// every connected service id gets an inbox function it can register,
// and every Send looks up the recipient's inbox and calls it directly.
// It exists to let a single binary host several admin services (e.g.
// integration tests, or a dev cluster in one process) without a real
// transport.
type InMemoryRegistry struct {
	mu      sync.Mutex
	inboxes map[string]InboundHandler
}

// NewInMemoryRegistry creates an empty in-memory registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{inboxes: make(map[string]InboundHandler)}
}

// RegisterInbox wires serviceID's inbound handler, so other services'
// sends addressed to serviceID are delivered synchronously.
func (r *InMemoryRegistry) RegisterInbox(serviceID string, handler InboundHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inboxes[serviceID] = handler
}

// Connect returns a Sender bound to serviceID; the sender looks up
// recipients at send time, so it is valid for the lifetime of the
// registry regardless of connect/disconnect ordering.
func (r *InMemoryRegistry) Connect(serviceID string) (Sender, error) {
	return &inMemorySender{registry: r, from: serviceID}, nil
}

// Disconnect removes serviceID's inbox; sends addressed to it will fail
// with ErrUnknownRecipient afterward.
func (r *InMemoryRegistry) Disconnect(serviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inboxes, serviceID)
	return nil
}

// ConnectPeer is a no-op for the in-memory transport: every registered
// service is already reachable by id.
func (r *InMemoryRegistry) ConnectPeer(nodeID, endpoint string) error {
	return nil
}

type inMemorySender struct {
	registry *InMemoryRegistry
	from     string
}

func (s *inMemorySender) Send(recipient string, message []byte) error {
	s.registry.mu.Lock()
	handler, ok := s.registry.inboxes[recipient]
	s.registry.mu.Unlock()
	if !ok {
		return ErrUnknownRecipient
	}
	return handler(message, s.from)
}

// LocalAuthorizationInquisitor is a single-process AuthorizationInquisitor
// double: an operator (or a test) drives peer authorization state
// through SetState, and the registered callback is invoked for every
// transition, the way a real peer authorization service would push
// updates to the admin core's tracker (spec §4.5).
type LocalAuthorizationInquisitor struct {
	mu     sync.Mutex
	states map[string]authz.PeerAuthorizationState
	cb     AuthorizationCallback
}

// NewLocalAuthorizationInquisitor creates an inquisitor with no known
// peers and no registered callback.
func NewLocalAuthorizationInquisitor() *LocalAuthorizationInquisitor {
	return &LocalAuthorizationInquisitor{states: make(map[string]authz.PeerAuthorizationState)}
}

// IsAuthorized reports peerID's last known state.
func (l *LocalAuthorizationInquisitor) IsAuthorized(peerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[peerID] == authz.Authorized
}

// RegisterCallback stores cb, replacing any previously registered one.
func (l *LocalAuthorizationInquisitor) RegisterCallback(cb AuthorizationCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cb = cb
}

// SetState records peerID's new authorization state and, if a callback
// is registered, delivers the transition to it. The callback is invoked
// outside of l's own lock, since it typically re-enters the admin
// shared state's critical section (spec §5 callback-in-lock hazard).
func (l *LocalAuthorizationInquisitor) SetState(peerID string, state authz.PeerAuthorizationState) error {
	l.mu.Lock()
	l.states[peerID] = state
	cb := l.cb
	l.mu.Unlock()

	if cb == nil {
		return nil
	}
	return cb(peerID, state)
}
