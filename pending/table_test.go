package pending

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
)

func TestInsertRejectsDuplicateID(t *testing.T) {
	table := New()
	id := ProposalID{1}
	entry := Entry{Proposal: Proposal{ID: id}, Payload: []byte("p")}

	require.NoError(t, table.Insert("circuit-a", entry))
	err := table.Insert("circuit-a", entry)
	require.ErrorIs(t, err, adminerrors.ErrProposalExists)
}

func TestContainsCircuitAndTake(t *testing.T) {
	table := New()
	id := ProposalID{2}
	entry := Entry{Proposal: Proposal{ID: id}, Payload: []byte("p")}

	require.False(t, table.ContainsCircuit("circuit-b"))
	require.NoError(t, table.Insert("circuit-b", entry))
	require.True(t, table.ContainsCircuit("circuit-b"))

	got, err := table.Take(id)
	require.NoError(t, err)
	require.Equal(t, entry, got)
	require.False(t, table.ContainsCircuit("circuit-b"))

	_, err = table.Take(id)
	require.Error(t, err)
}

func TestInsertIdempotentSameIDSamePayload(t *testing.T) {
	table := New()
	id := ProposalID{3}
	entry := Entry{Proposal: Proposal{ID: id}, Payload: []byte("same")}

	require.NoError(t, table.InsertIdempotent("circuit-c", entry))
	require.NoError(t, table.InsertIdempotent("circuit-c", entry))
	require.Equal(t, 1, table.Len())
}

func TestInsertIdempotentSameIDDifferentPayloadRejected(t *testing.T) {
	table := New()
	id := ProposalID{4}
	first := Entry{Proposal: Proposal{ID: id}, Payload: []byte("first")}
	second := Entry{Proposal: Proposal{ID: id}, Payload: []byte("second")}

	require.NoError(t, table.InsertIdempotent("circuit-d", first))
	err := table.InsertIdempotent("circuit-d", second)
	require.Error(t, err)
}
