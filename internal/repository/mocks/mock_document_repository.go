package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/model"
	"docflow/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) MarkPending(ctx context.Context, id, ownerEmail, scope string) (*model.Document, error) {
	args := m.Called(ctx, id, ownerEmail, scope)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) MarkProcessing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) MarkError(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockDocumentRepository) CommitRouting(ctx context.Context, id string, commit repository.RoutingCommit) (*model.Document, error) {
	args := m.Called(ctx, id, commit)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) UpdateScope(ctx context.Context, id, scope string) error {
	args := m.Called(ctx, id, scope)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateStorageKey(ctx context.Context, id, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListForActor(ctx context.Context, actor *model.User, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, actor, pq)
	if res, ok := args.Get(0).(*repository.PageResult[model.Document]); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) ListByStatuses(ctx context.Context, statuses ...string) ([]model.Document, error) {
	callArgs := make([]any, 0, len(statuses)+1)
	callArgs = append(callArgs, ctx)
	for _, s := range statuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	if docs, ok := args.Get(0).([]model.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
