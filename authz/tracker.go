// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authz implements the authorization tracker (spec §4.5, C5):
// observed per-peer authorization state, and release of proposals that
// were queued awaiting authorization of their full member set.
//
// Ownership note (spec §9, DESIGN NOTES): the tracker never holds a
// strong reference back into the admin shared state. The owner (package
// shared) drives it by calling OnStateChange and acts on the keys it
// returns, avoiding the retain cycle the source's Rust implementation
// sidesteps with a weak Arc.
package authz

import (
	"sync"

	"github.com/luxfi/math/set"
)

// PeerAuthorizationState is the state of a peer admin service's
// authorization, mirroring spec §4.5.
type PeerAuthorizationState int

const (
	Unknown PeerAuthorizationState = iota
	Connecting
	Authorized
	Unauthorized
)

// OnAuthorized is the shape of a per-proposal release handler. Tracker
// never invokes one itself: OnStateChange returns the released keys and
// the caller decides what to run for each of them.
type OnAuthorized func(proposalKey string)

// waiter is a proposal queued on a set of not-yet-authorized peers,
// using the same peer-id set shape the teacher uses
// (engine/core/interfaces.go's set.Set[ids.NodeID]) rather than a
// hand-rolled map[string]struct{}.
type waiter struct {
	key     string
	pending set.Set[string]
}

// Tracker maintains last-known authorization state per peer and queues
// proposals blocked on members that are not yet authorized.
type Tracker struct {
	mu      sync.Mutex
	states  map[string]PeerAuthorizationState
	waiters []*waiter
}

// New creates an empty authorization tracker.
func New() *Tracker {
	return &Tracker{states: make(map[string]PeerAuthorizationState)}
}

// IsAuthorized reports whether peerID's last known state is Authorized.
func (t *Tracker) IsAuthorized(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[peerID] == Authorized
}

// AwaitAuthorization registers a proposal (identified by an opaque key,
// typically the circuit id) that is blocked on the given peers. If all
// peers are already authorized, it returns true immediately and the
// caller proceeds without waiting.
func (t *Tracker) AwaitAuthorization(key string, peerIDs []string) (readyNow bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := set.NewSet[string](len(peerIDs))
	for _, p := range peerIDs {
		if t.states[p] != Authorized {
			pending.Add(p)
		}
	}
	if pending.Len() == 0 {
		return true
	}
	t.waiters = append(t.waiters, &waiter{key: key, pending: pending})
	return false
}

// OnStateChange updates the tracked state for peerID and, on a
// transition to Authorized, returns the keys of every waiting proposal
// whose member set is now fully authorized (in FIFO registration
// order), removing them from the wait list. The tracker's own lock is
// released before the keys are returned; acting on them is left to the
// caller.
func (t *Tracker) OnStateChange(peerID string, state PeerAuthorizationState) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.states[peerID] = state
	if state != Authorized {
		return nil
	}

	var ready []string
	remaining := t.waiters[:0]
	for _, w := range t.waiters {
		w.pending.Remove(peerID)
		if w.pending.Len() == 0 {
			ready = append(ready, w.key)
		} else {
			remaining = append(remaining, w)
		}
	}
	t.waiters = remaining

	return ready
}
