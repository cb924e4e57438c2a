package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/classifier"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req classifier.DispatchRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
