package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/notify"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishDocumentRouted(ctx context.Context, ev notify.RoutedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
