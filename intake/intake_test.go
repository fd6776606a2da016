// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intake

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticemesh/circuitadmin/directory"
	"github.com/latticemesh/circuitadmin/orchestrator"
	"github.com/latticemesh/circuitadmin/shared"
	"github.com/latticemesh/circuitadmin/types"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	st := shared.New("test-node", nil, directory.NewStore(directory.NewMemKV()), orchestrator.NewLocal(nil), nil, nil)
	require.NoError(t, st.SetNetworkSender(noopSender{}))
	return New(st, nil)
}

const validHexProposalID = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

type noopSender struct{}

func (noopSender) Send(string, []byte) error { return nil }

func testCircuit(id string) types.CreateCircuit {
	return types.CreateCircuit{Circuit: types.Circuit{
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
	}}
}

func TestHandleCreateCircuitAccepted(t *testing.T) {
	h := newTestHandler(t)
	body, err := json.Marshal(testCircuit("c1"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/circuit", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleCreateCircuitBadJSON(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/circuit", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateCircuitDuplicateRejected(t *testing.T) {
	h := newTestHandler(t)
	body, err := json.Marshal(testCircuit("c1"))
	require.NoError(t, err)

	req1 := httptest.NewRequest(http.MethodPost, "/admin/circuit", bytes.NewReader(body))
	rec1 := httptest.NewRecorder()
	h.Router().ServeHTTP(rec1, req1)
	require.Equal(t, http.StatusAccepted, rec1.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/admin/circuit", bytes.NewReader(body))
	rec2 := httptest.NewRecorder()
	h.Router().ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestHandleVoteBadProposalID(t *testing.T) {
	h := newTestHandler(t)
	vote := types.CircuitProposalVote{ProposalID: "not-hex", Vote: "ACCEPT"}
	body, err := json.Marshal(vote)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/vote", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVoteBadVoteValue(t *testing.T) {
	h := newTestHandler(t)
	vote := types.CircuitProposalVote{ProposalID: validHexProposalID, Vote: "MAYBE"}
	body, err := json.Marshal(vote)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/vote", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVoteWithoutConsensusAttachedIsServerError(t *testing.T) {
	h := newTestHandler(t)
	vote := types.CircuitProposalVote{ProposalID: validHexProposalID, Vote: "ACCEPT"}
	body, err := json.Marshal(vote)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/vote", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRegisterSubscriberRejectsMissingType(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/ws/admin/register/", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code, "gorilla/mux has no route for an empty path segment")
}
