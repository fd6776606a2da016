// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticemesh/circuitadmin/authz"
	"github.com/latticemesh/circuitadmin/consensusadapter"
	"github.com/latticemesh/circuitadmin/digest"
	"github.com/latticemesh/circuitadmin/directory"
	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/network"
	"github.com/latticemesh/circuitadmin/orchestrator"
	"github.com/latticemesh/circuitadmin/shared"
	"github.com/latticemesh/circuitadmin/types"
	"github.com/latticemesh/circuitadmin/wire"
)

func newTestService(t *testing.T) (*Service, *shared.State, network.Registry, network.AuthorizationInquisitor) {
	t.Helper()
	st := shared.New("test-node", nil, directory.NewStore(directory.NewMemKV()), orchestrator.NewLocal(nil), nil, nil)
	registry := network.NewInMemoryRegistry()
	inquisitor := network.NewLocalAuthorizationInquisitor()
	svc := New("test-node", st, consensusadapter.Config{K: 2, AlphaConfidence: 2, Beta: 1}, nil, nil)
	return svc, st, registry, inquisitor
}

// Scenario 5: lifecycle guard.
func TestLifecycleGuards(t *testing.T) {
	svc, _, registry, inquisitor := newTestService(t)

	require.NoError(t, svc.Start(registry, inquisitor))
	require.Equal(t, Started, svc.State())

	err := svc.Start(registry, inquisitor)
	require.ErrorIs(t, err, adminerrors.ErrAlreadyStarted)

	err = svc.Destroy()
	require.ErrorIs(t, err, adminerrors.ErrNotStopped)

	require.NoError(t, svc.Stop(registry))
	require.Equal(t, Stopped, svc.State())

	require.NoError(t, svc.Destroy())
	require.Equal(t, Destroyed, svc.State())
}

func TestHandleMessageRequiresStarted(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.HandleMessage([]byte{}, "admin::other-node")
	require.ErrorIs(t, err, adminerrors.ErrNotStarted)
}

// Scenario 3: peer-originated proposal.
func TestHandleMessageProposedCircuitRegistersPendingAndForwards(t *testing.T) {
	svc, st, registry, inquisitor := newTestService(t)
	require.NoError(t, svc.Start(registry, inquisitor))

	circuit := types.Circuit{
		CircuitID:             "c1",
		AuthorizationType:     types.TrustAuthorization,
		Persistence:           types.AnyPersistence,
		Routes:                types.AnyRoute,
		Durability:            types.NoDurability,
		CircuitManagementType: "test app auth handler",
		Members: []types.SplinterNode{
			{NodeID: "test-node", Endpoint: "tcp://someplace:8000"},
			{NodeID: "other-node", Endpoint: "tcp://otherplace:8000"},
		},
	}
	payload := types.CircuitManagementPayload{Action: types.ActionCircuitCreateRequest, CreateRequest: &circuit}
	payloadBytes, err := wire.EncodeCircuitManagementPayload(payload)
	require.NoError(t, err)
	sum, err := digest.Sum(payloadBytes)
	require.NoError(t, err)

	msg := wire.AdminMessage{
		MessageType: wire.MessageTypeProposedCircuit,
		ProposedCircuit: &wire.ProposedCircuit{
			ExpectedHash:      sum[:],
			CircuitPayload:    payloadBytes,
			RequiredVerifiers: [][]byte{[]byte("other-node")},
		},
	}
	encoded, err := wire.EncodeAdminMessage(msg)
	require.NoError(t, err)

	require.NoError(t, svc.HandleMessage(encoded, "admin::other-node"))

	require.True(t, st.PendingContainsCircuit("c1"))
}

func TestHandleMessageDropsUndecodable(t *testing.T) {
	svc, _, registry, inquisitor := newTestService(t)
	require.NoError(t, svc.Start(registry, inquisitor))
	require.NoError(t, svc.HandleMessage([]byte{0xDE, 0xAD}, "admin::other-node"))
}

// Start registers the shared state's OnAuthorizationChange with the
// inquisitor (spec §6 AuthorizationInquisitor.register_callback); driving
// the inquisitor afterward must reach the shared state without any
// further wiring from the caller.
func TestStartRegistersAuthorizationCallbackWithInquisitor(t *testing.T) {
	svc, st, registry, inquisitor := newTestService(t)
	require.NoError(t, svc.Start(registry, inquisitor))

	circuit := types.Circuit{
		CircuitID:             "c1",
		AuthorizationType:     types.TrustAuthorization,
		Persistence:           types.AnyPersistence,
		Routes:                types.AnyRoute,
		Durability:            types.NoDurability,
		CircuitManagementType: "test app auth handler",
		Members: []types.SplinterNode{
			{NodeID: "test-node", Endpoint: "tcp://someplace:8000"},
			{NodeID: "other-node", Endpoint: "tcp://otherplace:8000"},
		},
	}
	require.NoError(t, st.ProposeCircuit(circuit))

	local, ok := inquisitor.(*network.LocalAuthorizationInquisitor)
	require.True(t, ok)
	require.NoError(t, local.SetState("other-node", authz.Authorized))
	require.True(t, st.AuthTracker().IsAuthorized("other-node"), "the inquisitor's transition must reach the shared state's tracker")
}
