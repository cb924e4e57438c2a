package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docflow/internal/classifier"
	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/storage"
)

// Minimal in-package stubs: the testify mocks live in a subpackage that
// imports this one, so lock-discipline tests bring their own collaborators.

type stubDocumentRepo struct {
	repository.DocumentRepository
	doc *model.Document
}

func (r *stubDocumentRepo) FindByID(context.Context, string) (*model.Document, error) {
	return r.doc, nil
}

func (r *stubDocumentRepo) MarkProcessing(context.Context, string) error { return nil }

func (r *stubDocumentRepo) UpdateScope(context.Context, string, string) error { return nil }

type stubStorage struct {
	storage.Storage
}

func (stubStorage) PresignGet(context.Context, string, time.Duration, url.Values) (string, error) {
	return "https://store/read", nil
}

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(context.Context, classifier.DispatchRequest) error { return nil }

func lockTestService(doc *model.Document) *documentService {
	return &documentService{
		repo:       &stubDocumentRepo{doc: doc},
		store:      stubStorage{},
		dispatcher: stubDispatcher{},
		cfg:        Config{ClassifierReadTTL: time.Minute},
		locks:      newKeyedMutex(),
	}
}

// Every registry write for a document must hold its lock, so a re-dispatch or
// share cannot interleave with a callback's route-migrate-commit section.
func TestDocumentWritesHoldDocumentLock(t *testing.T) {
	doc := &model.Document{
		ID:          "doc-1",
		Filename:    "invoice.pdf",
		StorageKey:  "uploads/doc-1-invoice.pdf",
		Status:      model.StatusProcessed,
		OwnerEmail:  "owner@corp.vn",
		SharedScope: "SALES",
	}
	admin := &model.User{Email: "admin@corp.vn", Role: model.RoleAdmin}
	owner := &model.User{Email: "owner@corp.vn", Department: "SALES", Role: model.RoleUser}

	cases := []struct {
		name string
		call func(svc *documentService) error
	}{
		{
			name: "request processing",
			call: func(svc *documentService) error {
				return svc.RequestProcessing(context.Background(), "doc-1", admin)
			},
		},
		{
			name: "share",
			call: func(svc *documentService) error {
				return svc.Share(context.Background(), "doc-1", owner, model.ScopePublic)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := lockTestService(doc)

			unlock := svc.locks.Lock("doc-1")
			done := make(chan error, 1)
			go func() { done <- tc.call(svc) }()

			select {
			case <-done:
				t.Fatal("operation completed while the document lock was held")
			case <-time.After(50 * time.Millisecond):
			}

			unlock()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("operation never acquired the document lock")
			}
		})
	}
}
