package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticemesh/circuitadmin/types"
)

func testCircuit() types.Circuit {
	return types.Circuit{
		CircuitID:             "test_propose_circuit",
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
			{ServiceID: "service-a", ServiceType: "sabre", AllowedNodes: []string{"test-node", "other-node"}},
			{ServiceID: "service-b", ServiceType: "sabre", AllowedNodes: []string{"test-node"}},
		},
	}
}

func TestCircuitManagementPayloadRoundTrip(t *testing.T) {
	circuit := testCircuit()
	payload := types.CircuitManagementPayload{
		Action:        types.ActionCircuitCreateRequest,
		CreateRequest: &circuit,
	}

	encoded, err := EncodeCircuitManagementPayload(payload)
	require.NoError(t, err)

	decoded, err := DecodeCircuitManagementPayload(encoded)
	require.NoError(t, err)

	require.Equal(t, types.ActionCircuitCreateRequest, decoded.Action)
	require.Equal(t, circuit, *decoded.CreateRequest)
}

func TestCircuitManagementPayloadVoteRoundTrip(t *testing.T) {
	payload := types.CircuitManagementPayload{
		Action:     types.ActionCircuitProposalVote,
		ProposalID: [32]byte{1, 2, 3, 4},
		Vote:       types.VoteReject,
	}

	encoded, err := EncodeCircuitManagementPayload(payload)
	require.NoError(t, err)

	decoded, err := DecodeCircuitManagementPayload(encoded)
	require.NoError(t, err)

	require.Equal(t, payload.ProposalID, decoded.ProposalID)
	require.Equal(t, types.VoteReject, decoded.Vote)
}

func TestEncodeCircuitManagementPayloadDeterministic(t *testing.T) {
	circuit := testCircuit()
	payload := types.CircuitManagementPayload{Action: types.ActionCircuitCreateRequest, CreateRequest: &circuit}

	a, err := EncodeCircuitManagementPayload(payload)
	require.NoError(t, err)
	b, err := EncodeCircuitManagementPayload(payload)
	require.NoError(t, err)

	require.Equal(t, a, b, "sha256(encode(payload)) must be deterministic across nodes")
}

func TestAdminMessageRoundTripConsensus(t *testing.T) {
	msg := AdminMessage{
		MessageType:      MessageTypeConsensusMessage,
		ConsensusMessage: []byte("opaque consensus bytes"),
	}

	encoded, err := EncodeAdminMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeAdminMessage(encoded)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestAdminMessageRoundTripProposedCircuit(t *testing.T) {
	circuit := testCircuit()
	payload := types.CircuitManagementPayload{Action: types.ActionCircuitCreateRequest, CreateRequest: &circuit}
	payloadBytes, err := EncodeCircuitManagementPayload(payload)
	require.NoError(t, err)

	msg := AdminMessage{
		MessageType: MessageTypeProposedCircuit,
		ProposedCircuit: &ProposedCircuit{
			ExpectedHash:      []byte{0xde, 0xad, 0xbe, 0xef},
			CircuitPayload:    payloadBytes,
			RequiredVerifiers: [][]byte{[]byte("other-node")},
		},
	}

	encoded, err := EncodeAdminMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeAdminMessage(encoded)
	require.NoError(t, err)
	require.Equal(t, msg.MessageType, decoded.MessageType)
	require.Equal(t, msg.ProposedCircuit.ExpectedHash, decoded.ProposedCircuit.ExpectedHash)
	require.Equal(t, msg.ProposedCircuit.CircuitPayload, decoded.ProposedCircuit.CircuitPayload)
	require.Equal(t, msg.ProposedCircuit.RequiredVerifiers, decoded.ProposedCircuit.RequiredVerifiers)

	decodedPayload, err := DecodeCircuitManagementPayload(decoded.ProposedCircuit.CircuitPayload)
	require.NoError(t, err)
	require.Equal(t, circuit, *decodedPayload.CreateRequest)
}

func TestDecodeAdminMessageRejectsUnset(t *testing.T) {
	msg := AdminMessage{MessageType: MessageTypeUnset}
	encoded, err := EncodeAdminMessage(msg)
	require.NoError(t, err)

	_, err = DecodeAdminMessage(encoded)
	require.Error(t, err)
}
