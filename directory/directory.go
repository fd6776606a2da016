// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package directory defines the CircuitDirectory collaborator (spec
// §6): commit and lookup of committed circuits under a persisted
// store. The storage format itself is out of scope (spec §1); this
// package provides a concrete implementation backed by a minimal
// key/value store interface, the way the teacher's engine/chain/block
// and chains/atomic packages persist state through database.Database
// rather than rolling a bespoke file format — see DESIGN.md for why
// this package declares its own KVStore instead of importing
// github.com/luxfi/database's concrete Database type directly.
package directory

import (
	"fmt"
	"sync"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
	"github.com/latticemesh/circuitadmin/types"
	"github.com/latticemesh/circuitadmin/wire"
)

// KVStore is the minimal key/value contract this package depends on,
// shaped after the Has/Get/Put/Delete surface the teacher's
// database.Database exposes. Declaring it locally rather than
// depending on a specific driver keeps the directory package trivially
// testable against an in-memory double while remaining satisfiable by
// any real embedded KV engine at wiring time.
type KVStore interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// CircuitDirectory commits circuits and looks them up by id (spec §6).
// Committed circuits are never removed; the directory grows
// monotonically (spec §3).
type CircuitDirectory interface {
	Commit(circuit types.Circuit) error
	Lookup(circuitID string) (types.Circuit, bool, error)
}

// Store is a CircuitDirectory backed by a KVStore, guarded by its own
// lock so commits and lookups from different goroutines do not race.
type Store struct {
	mu sync.RWMutex
	kv KVStore
}

// NewStore wraps kv as a CircuitDirectory.
func NewStore(kv KVStore) *Store {
	return &Store{kv: kv}
}

func circuitKey(circuitID string) []byte {
	return []byte("circuit/" + circuitID)
}

// Commit persists circuit, keyed by its circuit_id, using the same
// canonical circuit encoding as the wire codec so what gets persisted
// is byte-identical to what was proposed and agreed on.
func (s *Store) Commit(circuit types.Circuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := types.CircuitManagementPayload{
		Action:        types.ActionCircuitCreateRequest,
		CreateRequest: &circuit,
	}
	encoded, err := wire.EncodeCircuitManagementPayload(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding circuit %q for persistence: %v", adminerrors.ErrDirectoryError, circuit.CircuitID, err)
	}
	if err := s.kv.Put(circuitKey(circuit.CircuitID), encoded); err != nil {
		return fmt.Errorf("%w: persisting circuit %q: %v", adminerrors.ErrDirectoryError, circuit.CircuitID, err)
	}
	return nil
}

// Lookup returns the committed circuit for circuitID, if any.
func (s *Store) Lookup(circuitID string) (types.Circuit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	has, err := s.kv.Has(circuitKey(circuitID))
	if err != nil {
		return types.Circuit{}, false, fmt.Errorf("%w: checking circuit %q: %v", adminerrors.ErrDirectoryError, circuitID, err)
	}
	if !has {
		return types.Circuit{}, false, nil
	}

	raw, err := s.kv.Get(circuitKey(circuitID))
	if err != nil {
		return types.Circuit{}, false, fmt.Errorf("%w: reading circuit %q: %v", adminerrors.ErrDirectoryError, circuitID, err)
	}
	payload, err := wire.DecodeCircuitManagementPayload(raw)
	if err != nil {
		return types.Circuit{}, false, fmt.Errorf("%w: decoding circuit %q: %v", adminerrors.ErrDirectoryError, circuitID, err)
	}
	return *payload.CreateRequest, true, nil
}

// MemKV is an in-memory KVStore, used in tests and as the default store
// when no persistent luxfi/database handle is configured.
type MemKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemKV creates an empty in-memory KVStore.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Has(key []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, fmt.Errorf("directory: key not found")
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemKV) Put(key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *MemKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}
