// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Code generated by mockgen-style hand authoring for the directory
// package's CircuitDirectory collaborator. DO NOT EDIT by following a
// different pattern than mockgen itself would: this file matches the
// shape go.uber.org/mock/mockgen produces, as seen in the teacher's own
// validator/validatorsmock (go.uber.org/mock/gomock-backed re-exports).
package mocks

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/latticemesh/circuitadmin/types"
)

// MockCircuitDirectory is a mock of the directory.CircuitDirectory interface.
type MockCircuitDirectory struct {
	ctrl     *gomock.Controller
	recorder *MockCircuitDirectoryMockRecorder
}

// MockCircuitDirectoryMockRecorder is the mock recorder for MockCircuitDirectory.
type MockCircuitDirectoryMockRecorder struct {
	mock *MockCircuitDirectory
}

// NewMockCircuitDirectory creates a new mock instance.
func NewMockCircuitDirectory(ctrl *gomock.Controller) *MockCircuitDirectory {
	mock := &MockCircuitDirectory{ctrl: ctrl}
	mock.recorder = &MockCircuitDirectoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCircuitDirectory) EXPECT() *MockCircuitDirectoryMockRecorder {
	return m.recorder
}

// Commit mocks base method.
func (m *MockCircuitDirectory) Commit(circuit types.Circuit) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", circuit)
	ret0, _ := ret[0].(error)
	return ret0
}

// Commit indicates an expected call of Commit.
func (mr *MockCircuitDirectoryMockRecorder) Commit(circuit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockCircuitDirectory)(nil).Commit), circuit)
}

// Lookup mocks base method.
func (m *MockCircuitDirectory) Lookup(circuitID string) (types.Circuit, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Lookup", circuitID)
	ret0, _ := ret[0].(types.Circuit)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// Lookup indicates an expected call of Lookup.
func (mr *MockCircuitDirectoryMockRecorder) Lookup(circuitID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Lookup", reflect.TypeOf((*MockCircuitDirectory)(nil).Lookup), circuitID)
}
