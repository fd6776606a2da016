// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types is the data model of the admin circuit service: nodes,
// services, circuits, the tagged management payload, and the JSON intake
// bodies (spec §3). The proposal record derived from a payload is
// pending.Proposal.
package types

import (
	"fmt"
	"sort"
)

// AdminServiceID derives the admin service's well-known identifier from
// a node id: "admin::<node_id>".
func AdminServiceID(nodeID string) string {
	return "admin::" + nodeID
}

// SplinterNode is the routing address of a circuit member.
type SplinterNode struct {
	NodeID   string `json:"node_id"`
	Endpoint string `json:"endpoint"`
}

// SplinterService is a role within a circuit, pinned to a subset of the
// circuit's members.
type SplinterService struct {
	ServiceID    string   `json:"service_id"`
	ServiceType  string   `json:"service_type"`
	AllowedNodes []string `json:"allowed_nodes"`
}

// AuthorizationType, PersistenceType, RouteType, and DurabilityType are
// the circuit's wire-level enumerations; the admin core treats them as
// opaque tags, so they're plain strings rather than a closed Go enum.
type (
	AuthorizationType string
	PersistenceType   string
	RouteType         string
	DurabilityType    string
)

const (
	TrustAuthorization AuthorizationType = "TRUST_AUTHORIZATION"

	AnyPersistence PersistenceType = "ANY_PERSISTENCE"

	AnyRoute RouteType = "ANY_ROUTE"

	NoDurability DurabilityType = "NO_DURABILITY"
)

// Circuit is a named, authenticated overlay across a set of member
// nodes with a fixed service roster.
type Circuit struct {
	CircuitID              string            `json:"circuit_id"`
	AuthorizationType      AuthorizationType `json:"authorization_type"`
	Persistence            PersistenceType   `json:"persistence"`
	Routes                 RouteType         `json:"routes"`
	Durability             DurabilityType    `json:"durability"`
	CircuitManagementType  string            `json:"circuit_management_type"`
	Members                []SplinterNode    `json:"members"`
	Roster                 []SplinterService `json:"roster"`
}

// Validate checks the invariants of spec §3: unique circuit_id is
// checked by the caller against the directory; here we check the
// structural invariants: at least two unique members, unique roster
// service ids, and every service's allowed_nodes is a subset of the
// members' node ids.
func (c Circuit) Validate() error {
	if c.CircuitID == "" {
		return fmt.Errorf("circuit_id must not be empty")
	}
	if len(c.Members) < 2 {
		return fmt.Errorf("circuit must have at least 2 members, got %d", len(c.Members))
	}

	memberIDs := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		if m.NodeID == "" {
			return fmt.Errorf("member node_id must not be empty")
		}
		if _, dup := memberIDs[m.NodeID]; dup {
			return fmt.Errorf("duplicate member node_id %q", m.NodeID)
		}
		memberIDs[m.NodeID] = struct{}{}
	}

	serviceIDs := make(map[string]struct{}, len(c.Roster))
	for _, s := range c.Roster {
		if s.ServiceID == "" {
			return fmt.Errorf("service_id must not be empty")
		}
		if _, dup := serviceIDs[s.ServiceID]; dup {
			return fmt.Errorf("duplicate service_id %q", s.ServiceID)
		}
		serviceIDs[s.ServiceID] = struct{}{}
		for _, allowed := range s.AllowedNodes {
			if _, ok := memberIDs[allowed]; !ok {
				return fmt.Errorf("service %q allowed_nodes references non-member %q", s.ServiceID, allowed)
			}
		}
	}
	return nil
}

// MemberIDs returns the circuit's member node ids in declaration order.
func (c Circuit) MemberIDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.NodeID
	}
	return ids
}

// OtherMemberIDs returns the circuit's member node ids excluding the
// given local node id, sorted for deterministic iteration.
func (c Circuit) OtherMemberIDs(localNodeID string) []string {
	out := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		if m.NodeID != localNodeID {
			out = append(out, m.NodeID)
		}
	}
	sort.Strings(out)
	return out
}

// Vote is the client's decision on a pending proposal.
type Vote int

const (
	VoteAccept Vote = iota
	VoteReject
)

func (v Vote) String() string {
	if v == VoteAccept {
		return "ACCEPT"
	}
	return "REJECT"
}

// ManagementAction tags which variant a CircuitManagementPayload holds.
type ManagementAction int

const (
	ActionUnset ManagementAction = iota
	ActionCircuitCreateRequest
	ActionCircuitProposalVote
)

// CircuitManagementPayload is the tagged variant carried over the wire
// inside a PROPOSED_CIRCUIT envelope. The REST intake does not decode it;
// it takes the CreateCircuit and CircuitProposalVote JSON bodies below.
type CircuitManagementPayload struct {
	Action ManagementAction

	// Set when Action == ActionCircuitCreateRequest.
	CreateRequest *Circuit

	// Set when Action == ActionCircuitProposalVote.
	ProposalID [32]byte
	Vote       Vote
}

// CircuitProposalVote is the JSON body of POST /admin/vote.
type CircuitProposalVote struct {
	ProposalID string `json:"proposal_id"` // hex-encoded, lowercase
	Vote       string `json:"vote"`        // "ACCEPT" | "REJECT"
}

// CreateCircuit is the JSON body of POST /admin/circuit.
type CreateCircuit struct {
	Circuit
}
