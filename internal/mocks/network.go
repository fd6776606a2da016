// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Code generated by mockgen-style hand authoring for the network
// package's Sender and AuthorizationInquisitor collaborators. See
// directory.go for the grounding note.
package mocks

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/latticemesh/circuitadmin/network"
)

// MockSender is a mock of the network.Sender interface.
type MockSender struct {
	ctrl     *gomock.Controller
	recorder *MockSenderMockRecorder
}

// MockSenderMockRecorder is the mock recorder for MockSender.
type MockSenderMockRecorder struct {
	mock *MockSender
}

// NewMockSender creates a new mock instance.
func NewMockSender(ctrl *gomock.Controller) *MockSender {
	mock := &MockSender{ctrl: ctrl}
	mock.recorder = &MockSenderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSender) EXPECT() *MockSenderMockRecorder {
	return m.recorder
}

// Send mocks base method.
func (m *MockSender) Send(recipient string, message []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", recipient, message)
	ret0, _ := ret[0].(error)
	return ret0
}

// Send indicates an expected call of Send.
func (mr *MockSenderMockRecorder) Send(recipient, message interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockSender)(nil).Send), recipient, message)
}

// MockAuthorizationInquisitor is a mock of the network.AuthorizationInquisitor interface.
type MockAuthorizationInquisitor struct {
	ctrl     *gomock.Controller
	recorder *MockAuthorizationInquisitorMockRecorder
}

// MockAuthorizationInquisitorMockRecorder is the mock recorder for MockAuthorizationInquisitor.
type MockAuthorizationInquisitorMockRecorder struct {
	mock *MockAuthorizationInquisitor
}

// NewMockAuthorizationInquisitor creates a new mock instance.
func NewMockAuthorizationInquisitor(ctrl *gomock.Controller) *MockAuthorizationInquisitor {
	mock := &MockAuthorizationInquisitor{ctrl: ctrl}
	mock.recorder = &MockAuthorizationInquisitorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAuthorizationInquisitor) EXPECT() *MockAuthorizationInquisitorMockRecorder {
	return m.recorder
}

// IsAuthorized mocks base method.
func (m *MockAuthorizationInquisitor) IsAuthorized(peerID string) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsAuthorized", peerID)
	ret0, _ := ret[0].(bool)
	return ret0
}

// IsAuthorized indicates an expected call of IsAuthorized.
func (mr *MockAuthorizationInquisitorMockRecorder) IsAuthorized(peerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsAuthorized", reflect.TypeOf((*MockAuthorizationInquisitor)(nil).IsAuthorized), peerID)
}

// RegisterCallback mocks base method.
func (m *MockAuthorizationInquisitor) RegisterCallback(cb network.AuthorizationCallback) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "RegisterCallback", cb)
}

// RegisterCallback indicates an expected call of RegisterCallback.
func (mr *MockAuthorizationInquisitorMockRecorder) RegisterCallback(cb interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RegisterCallback", reflect.TypeOf((*MockAuthorizationInquisitor)(nil).RegisterCallback), cb)
}
