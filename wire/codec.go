// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the admin envelope and circuit management
// payload codec (spec §4.2, C2): a canonical, deterministic binary
// schema, since the pending-proposal table's id is defined as the
// sha256 of the exact payload bytes (spec §3 invariants) and two nodes
// encoding the same logical circuit must land on the same digest.
//
// The teacher's own codec package (codec.Codec, a JSONCodec behind a
// CodecVersion) is JSON-based; Go's encoding/json is deterministic for
// fixed, non-map struct fields, but the spec additionally requires a
// *binary* wire format for the inbound/outbound AdminMessage envelope
// (spec §6), so this package follows the teacher's versioned-codec
// shape (a leading version number mirroring CodecVersion: two bytes on
// the AdminMessage envelope, one byte on the management payload) while using a
// hand-rolled length-prefixed binary encoding instead of JSON.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/types"
)

// CodecVersion mirrors the teacher's codec.CodecVersion.
type CodecVersion uint16

// CurrentVersion is the only version this service emits or accepts.
const CurrentVersion CodecVersion = 1

// MessageType tags an AdminMessage envelope.
type MessageType uint8

const (
	MessageTypeUnset MessageType = iota
	MessageTypeConsensusMessage
	MessageTypeProposedCircuit
)

// ProposedCircuit is the PROPOSED_CIRCUIT payload of spec §6.
type ProposedCircuit struct {
	ExpectedHash      []byte
	CircuitPayload    []byte
	RequiredVerifiers [][]byte
}

// AdminMessage is the tagged envelope exchanged between admin services
// (spec §4.2, §6).
type AdminMessage struct {
	MessageType      MessageType
	ConsensusMessage []byte
	ProposedCircuit  *ProposedCircuit
}

// EncodeAdminMessage serializes an envelope to its canonical binary form.
func EncodeAdminMessage(msg AdminMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint16(CurrentVersion)); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(msg.MessageType))

	switch msg.MessageType {
	case MessageTypeConsensusMessage:
		if err := writeBytes(&buf, msg.ConsensusMessage); err != nil {
			return nil, err
		}
	case MessageTypeProposedCircuit:
		if msg.ProposedCircuit == nil {
			return nil, fmt.Errorf("%w: proposed circuit message missing body", adminerrors.ErrInvalidMessageFormat)
		}
		if err := writeBytes(&buf, msg.ProposedCircuit.ExpectedHash); err != nil {
			return nil, err
		}
		if err := writeBytes(&buf, msg.ProposedCircuit.CircuitPayload); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(msg.ProposedCircuit.RequiredVerifiers))); err != nil {
			return nil, err
		}
		for _, v := range msg.ProposedCircuit.RequiredVerifiers {
			if err := writeBytes(&buf, v); err != nil {
				return nil, err
			}
		}
	case MessageTypeUnset:
		// Intentionally encodable: a peer sending UNSET is a format
		// error on decode, not an encode-time error here.
	default:
		return nil, fmt.Errorf("%w: unknown message type %d", adminerrors.ErrInvalidMessageFormat, msg.MessageType)
	}

	return buf.Bytes(), nil
}

// DecodeAdminMessage parses a canonical binary envelope. UNSET is
// rejected as a format error per spec §4.2.
func DecodeAdminMessage(data []byte) (AdminMessage, error) {
	r := bytes.NewReader(data)

	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
	}
	if CodecVersion(version) != CurrentVersion {
		return AdminMessage{}, fmt.Errorf("%w: unsupported codec version %d", adminerrors.ErrInvalidMessageFormat, version)
	}

	typeByte, err := r.ReadByte()
	if err != nil {
		return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
	}

	msg := AdminMessage{MessageType: MessageType(typeByte)}
	switch msg.MessageType {
	case MessageTypeConsensusMessage:
		b, err := readBytes(r)
		if err != nil {
			return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		msg.ConsensusMessage = b
	case MessageTypeProposedCircuit:
		expectedHash, err := readBytes(r)
		if err != nil {
			return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		circuitPayload, err := readBytes(r)
		if err != nil {
			return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		verifiers := make([][]byte, 0, count)
		for i := uint32(0); i < count; i++ {
			v, err := readBytes(r)
			if err != nil {
				return AdminMessage{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
			}
			verifiers = append(verifiers, v)
		}
		msg.ProposedCircuit = &ProposedCircuit{
			ExpectedHash:      expectedHash,
			CircuitPayload:    circuitPayload,
			RequiredVerifiers: verifiers,
		}
	case MessageTypeUnset:
		return AdminMessage{}, fmt.Errorf("%w: message type UNSET", adminerrors.ErrInvalidMessageFormat)
	default:
		return AdminMessage{}, fmt.Errorf("%w: unknown message type %d", adminerrors.ErrInvalidMessageFormat, typeByte)
	}

	return msg, nil
}

// EncodeCircuitManagementPayload serializes a CircuitManagementPayload
// to its canonical binary form. This is the byte slice whose sha256
// becomes the proposal id (spec §3, §4.1).
func EncodeCircuitManagementPayload(p types.CircuitManagementPayload) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(CurrentVersion))
	buf.WriteByte(byte(p.Action))

	switch p.Action {
	case types.ActionCircuitCreateRequest:
		if p.CreateRequest == nil {
			return nil, fmt.Errorf("%w: create request payload missing circuit", adminerrors.ErrInvalidCircuit)
		}
		if err := encodeCircuit(&buf, *p.CreateRequest); err != nil {
			return nil, err
		}
	case types.ActionCircuitProposalVote:
		buf.Write(p.ProposalID[:])
		buf.WriteByte(byte(p.Vote))
	default:
		return nil, fmt.Errorf("%w: unset management action", adminerrors.ErrInvalidMessageFormat)
	}

	return buf.Bytes(), nil
}

// DecodeCircuitManagementPayload parses a canonical CircuitManagementPayload.
func DecodeCircuitManagementPayload(data []byte) (types.CircuitManagementPayload, error) {
	r := bytes.NewReader(data)

	versionByte, err := r.ReadByte()
	if err != nil {
		return types.CircuitManagementPayload{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
	}
	if CodecVersion(versionByte) != CurrentVersion {
		return types.CircuitManagementPayload{}, fmt.Errorf("%w: unsupported payload codec version %d", adminerrors.ErrInvalidMessageFormat, versionByte)
	}

	actionByte, err := r.ReadByte()
	if err != nil {
		return types.CircuitManagementPayload{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
	}

	p := types.CircuitManagementPayload{Action: types.ManagementAction(actionByte)}
	switch p.Action {
	case types.ActionCircuitCreateRequest:
		circuit, err := decodeCircuit(r)
		if err != nil {
			return types.CircuitManagementPayload{}, err
		}
		p.CreateRequest = &circuit
	case types.ActionCircuitProposalVote:
		if _, err := io.ReadFull(r, p.ProposalID[:]); err != nil {
			return types.CircuitManagementPayload{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		voteByte, err := r.ReadByte()
		if err != nil {
			return types.CircuitManagementPayload{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		p.Vote = types.Vote(voteByte)
	default:
		return types.CircuitManagementPayload{}, fmt.Errorf("%w: unset management action", adminerrors.ErrInvalidMessageFormat)
	}

	return p, nil
}

func encodeCircuit(buf *bytes.Buffer, c types.Circuit) error {
	fields := []string{
		c.CircuitID,
		string(c.AuthorizationType),
		string(c.Persistence),
		string(c.Routes),
		string(c.Durability),
		string(c.CircuitManagementType),
	}
	for _, f := range fields {
		if err := writeString(buf, f); err != nil {
			return err
		}
	}

	if err := binary.Write(buf, binary.BigEndian, uint32(len(c.Members))); err != nil {
		return err
	}
	for _, m := range c.Members {
		if err := writeString(buf, m.NodeID); err != nil {
			return err
		}
		if err := writeString(buf, m.Endpoint); err != nil {
			return err
		}
	}

	if err := binary.Write(buf, binary.BigEndian, uint32(len(c.Roster))); err != nil {
		return err
	}
	for _, s := range c.Roster {
		if err := writeString(buf, s.ServiceID); err != nil {
			return err
		}
		if err := writeString(buf, s.ServiceType); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.BigEndian, uint32(len(s.AllowedNodes))); err != nil {
			return err
		}
		for _, n := range s.AllowedNodes {
			if err := writeString(buf, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeCircuit(r *bytes.Reader) (types.Circuit, error) {
	var c types.Circuit
	strs := make([]string, 6)
	for i := range strs {
		s, err := readString(r)
		if err != nil {
			return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		strs[i] = s
	}
	c.CircuitID = strs[0]
	c.AuthorizationType = types.AuthorizationType(strs[1])
	c.Persistence = types.PersistenceType(strs[2])
	c.Routes = types.RouteType(strs[3])
	c.Durability = types.DurabilityType(strs[4])
	c.CircuitManagementType = strs[5]

	var memberCount uint32
	if err := binary.Read(r, binary.BigEndian, &memberCount); err != nil {
		return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
	}
	c.Members = make([]types.SplinterNode, memberCount)
	for i := range c.Members {
		nodeID, err := readString(r)
		if err != nil {
			return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		endpoint, err := readString(r)
		if err != nil {
			return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		c.Members[i] = types.SplinterNode{NodeID: nodeID, Endpoint: endpoint}
	}

	var rosterCount uint32
	if err := binary.Read(r, binary.BigEndian, &rosterCount); err != nil {
		return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
	}
	c.Roster = make([]types.SplinterService, rosterCount)
	for i := range c.Roster {
		serviceID, err := readString(r)
		if err != nil {
			return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		serviceType, err := readString(r)
		if err != nil {
			return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		var allowedCount uint32
		if err := binary.Read(r, binary.BigEndian, &allowedCount); err != nil {
			return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
		}
		allowed := make([]string, allowedCount)
		for j := range allowed {
			n, err := readString(r)
			if err != nil {
				return types.Circuit{}, fmt.Errorf("%w: %v", adminerrors.ErrInvalidMessageFormat, err)
			}
			allowed[j] = n
		}
		c.Roster[i] = types.SplinterService{ServiceID: serviceID, ServiceType: serviceType, AllowedNodes: allowed}
	}

	return c, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	return writeBytes(buf, []byte(s))
}

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
