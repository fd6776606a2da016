// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensusadapter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticemesh/circuitadmin/pending"
)

type fakeCallbacks struct {
	mu       sync.Mutex
	accepted []pending.ProposalID
	rejected []pending.ProposalID
}

func (f *fakeCallbacks) OnProposalAccepted(id pending.ProposalID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, id)
	return nil
}

func (f *fakeCallbacks) OnProposalRejected(id pending.ProposalID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, id)
	return nil
}

func TestConfigValid(t *testing.T) {
	require.NoError(t, Config{K: 2, AlphaConfidence: 2, Beta: 1}.Valid())
	require.ErrorIs(t, Config{K: 0, AlphaConfidence: 1, Beta: 1}.Valid(), ErrInvalidK)
	require.ErrorIs(t, Config{K: 2, AlphaConfidence: 3, Beta: 1}.Valid(), ErrInvalidAlpha)
	require.ErrorIs(t, Config{K: 2, AlphaConfidence: 1, Beta: 0}.Valid(), ErrInvalidBeta)
}

func TestQuorumAcceptDelivers(t *testing.T) {
	cb := &fakeCallbacks{}
	mgr, err := NewManager("admin::test-node", cb, Config{K: 2, AlphaConfidence: 2, Beta: 1}, nil, nil)
	require.NoError(t, err)

	id := pending.ProposalID{9}
	require.NoError(t, mgr.RecordVote(id, "node-a", true))
	require.Empty(t, cb.accepted, "must not accept before quorum")
	require.NoError(t, mgr.RecordVote(id, "node-b", true))

	require.Equal(t, []pending.ProposalID{id}, cb.accepted)
	require.Empty(t, cb.rejected)
}

func TestQuorumRejectDelivers(t *testing.T) {
	cb := &fakeCallbacks{}
	mgr, err := NewManager("admin::test-node", cb, Config{K: 2, AlphaConfidence: 2, Beta: 1}, nil, nil)
	require.NoError(t, err)

	id := pending.ProposalID{9}
	require.NoError(t, mgr.RecordVote(id, "node-a", false))
	require.NoError(t, mgr.RecordVote(id, "node-b", false))

	require.Equal(t, []pending.ProposalID{id}, cb.rejected)
	require.Empty(t, cb.accepted)
}

func TestShutdownRejectsFurtherUpdates(t *testing.T) {
	cb := &fakeCallbacks{}
	mgr, err := NewManager("admin::test-node", cb, Config{K: 1, AlphaConfidence: 1, Beta: 1}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Shutdown())
	err = mgr.SendUpdate(ProposalUpdate{Kind: ConsensusMessage})
	require.Error(t, err)
}

func TestEncodeVerifiersRoundTrip(t *testing.T) {
	verifiers := []string{"other-node", "third-node"}
	encoded := EncodeVerifiers(verifiers)
	require.Equal(t, verifiers, SplitVerifiers(encoded))
}
