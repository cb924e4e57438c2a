package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/model"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ListEmailsByDepartment(ctx context.Context, department string) ([]string, error) {
	args := m.Called(ctx, department)
	if emails, ok := args.Get(0).([]string); ok {
		return emails, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ListAllEmails(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if emails, ok := args.Get(0).([]string); ok {
		return emails, args.Error(1)
	}
	return nil, args.Error(1)
}
