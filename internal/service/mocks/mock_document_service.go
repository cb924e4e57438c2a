package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/classifier"
	"docflow/internal/model"
	"docflow/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) BeginUpload(ctx context.Context, filename, declaredType string) (*service.UploadIntent, error) {
	args := m.Called(ctx, filename, declaredType)
	if intent, ok := args.Get(0).(*service.UploadIntent); ok {
		return intent, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) CompleteUpload(ctx context.Context, id string, actor *model.User) (*service.DispatchConfirmation, error) {
	args := m.Called(ctx, id, actor)
	if conf, ok := args.Get(0).(*service.DispatchConfirmation); ok {
		return conf, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) HandleClassifierCallback(ctx context.Context, cb classifier.CallbackPayload) (*service.RoutingOutcome, error) {
	args := m.Called(ctx, cb)
	if out, ok := args.Get(0).(*service.RoutingOutcome); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) RequestProcessing(ctx context.Context, id string, actor *model.User) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockDocumentService) Get(ctx context.Context, id string, actor *model.User) (*model.Document, error) {
	args := m.Called(ctx, id, actor)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, actor *model.User, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if res, ok := args.Get(0).(*service.DocumentListResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) View(ctx context.Context, id string, actor *model.User) (string, error) {
	args := m.Called(ctx, id, actor)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Share(ctx context.Context, id string, actor *model.User, targetDepartment string) error {
	args := m.Called(ctx, id, actor, targetDepartment)
	return args.Error(0)
}

func (m *MockDocumentService) Reclassify(ctx context.Context, id string, actor *model.User, newLabel string) (*service.RoutingOutcome, error) {
	args := m.Called(ctx, id, actor, newLabel)
	if out, ok := args.Get(0).(*service.RoutingOutcome); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string, actor *model.User) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockDocumentService) ReconcileStorage(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
