// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package intake implements the admin service's HTTP/WebSocket surface
// (spec §4.9, C9): three thin endpoints that parse validated payloads
// and route them into the shared admin state, translating its results
// into the response codes of spec §6. Grounded on the teacher's
// pkg/go/cmd/server plain net/http + encoding/json handler style;
// gorilla/mux supplies path-parameter extraction for the websocket
// registration route, and gorilla/websocket the upgrade itself.
package intake

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/luxfi/zap"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/internal/logging"
	"github.com/latticemesh/circuitadmin/pending"
	"github.com/latticemesh/circuitadmin/shared"
	"github.com/latticemesh/circuitadmin/subscriber"
	"github.com/latticemesh/circuitadmin/types"
)

// Handler is the admin intake surface bound to a single node's shared
// state.
type Handler struct {
	shared   *shared.State
	log      logging.Logger
	upgrader websocket.Upgrader
}

// New constructs the intake handler for sharedState.
func New(sharedState *shared.State, log logging.Logger) *Handler {
	if log == nil {
		log = logging.NoOp()
	}
	return &Handler{
		shared: sharedState,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gorilla/mux router serving the three admin
// endpoints of spec §4.9.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/admin/circuit", h.handleCreateCircuit).Methods(http.MethodPost)
	r.HandleFunc("/admin/vote", h.handleVote).Methods(http.MethodPost)
	r.HandleFunc("/ws/admin/register/{type}", h.handleRegisterSubscriber).Methods(http.MethodGet)
	return r
}

// errorResponse is the JSON body of a 400/500 response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func writeAccepted(w http.ResponseWriter) {
	w.WriteHeader(http.StatusAccepted)
}

// statusFor maps a shared-state error to its HTTP status per spec §7:
// client-caused (validation) errors are 400, state-caused errors are
// 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, adminerrors.ErrInvalidCircuit),
		errors.Is(err, adminerrors.ErrAlreadyPending):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleCreateCircuit serves POST /admin/circuit.
func (h *Handler) handleCreateCircuit(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCircuit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.shared.ProposeCircuit(req.Circuit); err != nil {
		h.log.Warn("propose_circuit rejected", zap.String("circuit_id", req.CircuitID), zap.Error(err))
		writeError(w, statusFor(err), err)
		return
	}

	writeAccepted(w)
}

// handleVote serves POST /admin/vote. Per spec §9, this is fully
// wired: an accepted/rejected vote routes into the consensus adapter
// via shared.HandleVote, not merely acknowledged.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req types.CircuitProposalVote
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	idBytes, err := hex.DecodeString(req.ProposalID)
	if err != nil || len(idBytes) != 32 {
		writeError(w, http.StatusBadRequest, errors.New("intake: proposal_id must be 32 bytes of hex"))
		return
	}
	var id pending.ProposalID
	copy(id[:], idBytes)

	var accept bool
	switch req.Vote {
	case "ACCEPT":
		accept = true
	case "REJECT":
		accept = false
	default:
		writeError(w, http.StatusBadRequest, errors.New("intake: vote must be ACCEPT or REJECT"))
		return
	}

	if err := h.shared.HandleVote(id, voterFromRequest(r), accept); err != nil {
		h.log.Warn("handle_vote failed", zap.String("proposal_id", req.ProposalID), zap.Error(err))
		writeError(w, statusFor(err), err)
		return
	}

	writeAccepted(w)
}

// voterFromRequest identifies the voting peer. The transport layer that
// authenticates inbound admin peers is out of scope (spec §1); this
// uses the caller-supplied header as a placeholder for whatever
// mutual-auth mechanism the deployed transport establishes.
func voterFromRequest(r *http.Request) string {
	if v := r.Header.Get("X-Admin-Voter"); v != "" {
		return v
	}
	return "unknown-voter"
}

// handleRegisterSubscriber serves GET /ws/admin/register/{type},
// upgrading to a websocket and streaming circuit-lifecycle events for
// management_type until the connection closes.
func (h *Handler) handleRegisterSubscriber(w http.ResponseWriter, r *http.Request) {
	managementType := mux.Vars(r)["type"]
	if managementType == "" {
		writeError(w, http.StatusBadRequest, errors.New("intake: management type must not be empty"))
		return
	}

	ch, err := h.shared.AddSubscriber(managementType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		h.shared.RemoveSubscriber(managementType, ch)
		return
	}
	defer func() {
		h.shared.RemoveSubscriber(managementType, ch)
		_ = conn.Close()
	}()

	for event := range ch.Events() {
		if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			return
		}
		if err := conn.WriteJSON(subscriberEventJSONFrom(event)); err != nil {
			return
		}
	}
}

// subscriberEventJSON is the wire shape of a delivered circuit-lifecycle
// event.
type subscriberEventJSON struct {
	Kind      string `json:"kind"`
	CircuitID string `json:"circuit_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func subscriberEventJSONOf(kind subscriber.EventKind) string {
	switch kind {
	case subscriber.EventCircuitReady:
		return "CIRCUIT_READY"
	case subscriber.EventCircuitRejected:
		return "CIRCUIT_REJECTED"
	default:
		return "UNKNOWN"
	}
}

func subscriberEventJSONFrom(event subscriber.Event) subscriberEventJSON {
	return subscriberEventJSON{
		Kind:      subscriberEventJSONOf(event.Kind),
		CircuitID: event.CircuitID,
		Detail:    event.Detail,
	}
}
