package mocks

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	interfaces "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// MockClientRef is a mock of ClientRef interface.
type MockClientRef[Req, Res any] struct {
	ctrl     *gomock.Controller
	recorder *MockClientRefMockRecorder[Req, Res]
}

// MockClientRefMockRecorder is the mock recorder for MockClientRef.
type MockClientRefMockRecorder[Req, Res any] struct {
	mock *MockClientRef[Req, Res]
}

var _ interfaces.ClientRef[struct{}, struct{}] = (*MockClientRef[struct{}, struct{}])(nil)

// NewMockClientRef creates a new mock instance.
func NewMockClientRef[Req, Res any](ctrl *gomock.Controller) *MockClientRef[Req, Res] {
	mock := &MockClientRef[Req, Res]{ctrl: ctrl}
	mock.recorder = &MockClientRefMockRecorder[Req, Res]{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockClientRef[Req, Res]) EXPECT() *MockClientRefMockRecorder[Req, Res] {
	return m.recorder
}

// Ask mocks base method.
func (m *MockClientRef[Req, Res]) Ask(ctx context.Context, req Req) (Res, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Ask", ctx, req)
	ret0, _ := ret[0].(Res)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Ask indicates an expected call of Ask.
func (mr *MockClientRefMockRecorder[Req, Res]) Ask(ctx, req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Ask", reflect.TypeOf((*MockClientRef[Req, Res])(nil).Ask), ctx, req)
}
