// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adminerrors enumerates the error kinds of the admin circuit
// service, following the teacher's root-package convention of sentinel
// errors (see errors_test.go: ErrTimeout, ErrNoQuorum, ErrConflict, ...).
package adminerrors

import "errors"

var (
	// ErrInvalidMessageFormat is returned when a wire envelope cannot be
	// decoded, or decodes to the UNSET message type.
	ErrInvalidMessageFormat = errors.New("invalid message format")

	// ErrNotStarted is returned when an operation requires the Started
	// lifecycle state but the service has not been started.
	ErrNotStarted = errors.New("service not started")

	// ErrAlreadyStarted is returned by start when the service is already
	// running.
	ErrAlreadyStarted = errors.New("service already started")

	// ErrNotStopped is returned by destroy when the service has not been
	// stopped first.
	ErrNotStopped = errors.New("service not stopped")

	// ErrPoisonedLock is returned when a prior panic left the shared
	// state's critical section unusable. It is fatal: the service must
	// be restarted.
	ErrPoisonedLock = errors.New("admin shared state lock poisoned")

	// ErrUnableToHandleMessage wraps a failure in routing an inbound
	// message to the consensus adapter.
	ErrUnableToHandleMessage = errors.New("unable to handle message")

	// ErrInvalidCircuit is returned when a proposed circuit fails the
	// data-model invariants of spec §3.
	ErrInvalidCircuit = errors.New("invalid circuit")

	// ErrAlreadyPending is returned when a second proposal for a
	// circuit_id arrives while one is already in flight.
	ErrAlreadyPending = errors.New("circuit already has a pending proposal")

	// ErrDigestError wraps a failure computing the sha256 digest of a
	// serialized payload.
	ErrDigestError = errors.New("digest computation failed")

	// ErrTransportError wraps a failure in the network sender.
	ErrTransportError = errors.New("transport error")

	// ErrOrchestratorError wraps a failure starting or stopping a local
	// service; it never rolls back a committed circuit.
	ErrOrchestratorError = errors.New("orchestrator error")

	// ErrDirectoryError wraps a failure persisting to the circuit
	// directory; the pending entry is retained for retry.
	ErrDirectoryError = errors.New("circuit directory error")

	// ErrProposalNotFound is returned when an operation references a
	// proposal id absent from the pending table.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrProposalExists is returned by the pending table's insert when
	// the id is already present.
	ErrProposalExists = errors.New("proposal already pending")

	// ErrPayloadMismatch is returned when add_pending_consensus_proposal
	// observes the same id with a different payload.
	ErrPayloadMismatch = errors.New("pending proposal payload mismatch")
)
