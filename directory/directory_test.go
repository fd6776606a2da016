// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package directory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticemesh/circuitadmin/types"
)

func testCircuit(id string) types.Circuit {
	return types.Circuit{
		CircuitID:             id,
		AuthorizationType:     types.TrustAuthorization,
		Persistence:           types.AnyPersistence,
		Routes:                types.AnyRoute,
		Durability:            types.NoDurability,
		CircuitManagementType: "test app auth handler",
		Members: []types.SplinterNode{
			{NodeID: "test-node", Endpoint: "tcp://someplace:8000"},
			{NodeID: "other-node", Endpoint: "tcp://otherplace:8000"},
		},
		Roster: []types.SplinterService{
			{ServiceID: "service-a", ServiceType: "sabre", AllowedNodes: []string{"test-node"}},
		},
	}
}

func TestCommitThenLookup(t *testing.T) {
	store := NewStore(NewMemKV())
	circuit := testCircuit("c1")

	require.NoError(t, store.Commit(circuit))

	got, found, err := store.Lookup("c1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, circuit, got)
}

func TestLookupMissing(t *testing.T) {
	store := NewStore(NewMemKV())
	_, found, err := store.Lookup("missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDirectoryGrowsMonotonically(t *testing.T) {
	store := NewStore(NewMemKV())
	require.NoError(t, store.Commit(testCircuit("c1")))
	require.NoError(t, store.Commit(testCircuit("c2")))

	_, found1, _ := store.Lookup("c1")
	_, found2, _ := store.Lookup("c2")
	require.True(t, found1)
	require.True(t, found2)
}
