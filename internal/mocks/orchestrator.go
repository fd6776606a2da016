// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Code generated by mockgen-style hand authoring for the orchestrator
// package's Orchestrator collaborator. See directory.go for the
// grounding note.
package mocks

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/latticemesh/circuitadmin/orchestrator"
)

// MockOrchestrator is a mock of the orchestrator.Orchestrator interface.
type MockOrchestrator struct {
	ctrl     *gomock.Controller
	recorder *MockOrchestratorMockRecorder
}

// MockOrchestratorMockRecorder is the mock recorder for MockOrchestrator.
type MockOrchestratorMockRecorder struct {
	mock *MockOrchestrator
}

// NewMockOrchestrator creates a new mock instance.
func NewMockOrchestrator(ctrl *gomock.Controller) *MockOrchestrator {
	mock := &MockOrchestrator{ctrl: ctrl}
	mock.recorder = &MockOrchestratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOrchestrator) EXPECT() *MockOrchestratorMockRecorder {
	return m.recorder
}

// StartService mocks base method.
func (m *MockOrchestrator) StartService(def orchestrator.ServiceDefinition) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StartService", def)
	ret0, _ := ret[0].(error)
	return ret0
}

// StartService indicates an expected call of StartService.
func (mr *MockOrchestratorMockRecorder) StartService(def interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StartService", reflect.TypeOf((*MockOrchestrator)(nil).StartService), def)
}

// StopService mocks base method.
func (m *MockOrchestrator) StopService(serviceID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StopService", serviceID)
	ret0, _ := ret[0].(error)
	return ret0
}

// StopService indicates an expected call of StopService.
func (mr *MockOrchestratorMockRecorder) StopService(serviceID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StopService", reflect.TypeOf((*MockOrchestrator)(nil).StopService), serviceID)
}
