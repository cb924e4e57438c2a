package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/model"
)

type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) ListAll(ctx context.Context) ([]model.Department, error) {
	args := m.Called(ctx)
	if depts, ok := args.Get(0).([]model.Department); ok {
		return depts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDepartmentRepository) FindByName(ctx context.Context, name string) (*model.Department, error) {
	args := m.Called(ctx, name)
	if dept, ok := args.Get(0).(*model.Department); ok {
		return dept, args.Error(1)
	}
	return nil, args.Error(1)
}
