// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pending implements the pending-proposal table (spec §4.4,
// C4): a map from proposal id to the proposal header and its original
// payload bytes, guarded by its own lock so it can be used standalone
// in tests, with the admin shared state (package shared) serializing
// higher-level access through its own critical section.
package pending

import (
	"sync"

	"github.com/luxfi/ids"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
)

// ProposalID is the 32-byte sha256 digest of a payload (spec §3). It is
// an alias for the teacher's own 32-byte identifier type, the same
// width a sha256 digest needs, so a proposal id is usable anywhere the
// rest of the stack expects an ids.ID.
type ProposalID = ids.ID

// Proposal is the immutable record derived from a wire payload (spec §3).
type Proposal struct {
	ID            ProposalID
	Summary       []byte
	ConsensusData []byte
}

// Entry is a (Proposal, payload) pair retained so the commit step can
// replay the payload verbatim (spec §3, PendingProposal).
type Entry struct {
	Proposal Proposal
	Payload  []byte
}

// Table is the pending-proposal table. Zero value is not usable; use New.
type Table struct {
	mu      sync.Mutex
	entries map[ProposalID]Entry
	// circuitIDs tracks circuit_id -> proposal id for contains_circuit,
	// enforcing at most one pending proposal per circuit (spec §3).
	circuitIDs map[string]ProposalID
}

// New creates an empty pending-proposal table.
func New() *Table {
	return &Table{
		entries:    make(map[ProposalID]Entry),
		circuitIDs: make(map[string]ProposalID),
	}
}

// Insert adds a new entry keyed on circuitID for contains_circuit checks.
// It fails with ErrProposalExists if id is already present.
func (t *Table) Insert(circuitID string, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[entry.Proposal.ID]; exists {
		return adminerrors.ErrProposalExists
	}
	t.entries[entry.Proposal.ID] = entry
	t.circuitIDs[circuitID] = entry.Proposal.ID
	return nil
}

// InsertIdempotent adds an entry for an id that may already be present
// (used by the inbound side per spec §4.6 add_pending_consensus_proposal).
// If id is already present, it succeeds only when the payload is
// byte-identical; otherwise it returns ErrPayloadMismatch.
func (t *Table) InsertIdempotent(circuitID string, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, exists := t.entries[entry.Proposal.ID]
	if exists {
		if string(existing.Payload) != string(entry.Payload) {
			return adminerrors.ErrPayloadMismatch
		}
		return nil
	}
	t.entries[entry.Proposal.ID] = entry
	t.circuitIDs[circuitID] = entry.Proposal.ID
	return nil
}

// Take removes and returns the entry for id.
func (t *Table) Take(id ProposalID) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		return Entry{}, adminerrors.ErrProposalNotFound
	}
	delete(t.entries, id)
	for circuitID, pid := range t.circuitIDs {
		if pid == id {
			delete(t.circuitIDs, circuitID)
			break
		}
	}
	return entry, nil
}

// Get returns the entry for id without removing it.
func (t *Table) Get(id ProposalID) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	return entry, ok
}

// ContainsCircuit reports whether a proposal is pending for circuitID.
func (t *Table) ContainsCircuit(circuitID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.circuitIDs[circuitID]
	return ok
}

// Len returns the number of entries currently pending.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
