package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Migrate(ctx context.Context, oldKey, targetFolder string) (string, error) {
	args := m.Called(ctx, oldKey, targetFolder)
	return args.String(0), args.Error(1)
}
