package repository

import (
	"context"
	"time"

	"docflow/internal/model"
)

// RoutingCommit carries the registry fields written atomically once a
// routing decision and its storage migration have been confirmed. The commit
// is a single UPDATE so the registry never exposes a half-routed document.
type RoutingCommit struct {
	StorageKey     string
	Classification string
	HasPII         bool
	Scope          string
	ProcessedAt    time.Time
}

// DocumentRepository defines data access for the document registry using SQL
// queries only. No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new registry row for an upload intent.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// MarkPending attaches the owner and default sharing scope and moves the
	// document to PENDING, returning the updated row.
	MarkPending(ctx context.Context, id, ownerEmail, scope string) (*model.Document, error)

	// MarkProcessing moves the document to PROCESSING (scan/OCR retry flow).
	MarkProcessing(ctx context.Context, id string) error

	// MarkError moves the document to ERROR with the worker's diagnostic.
	MarkError(ctx context.Context, id, reason string) error

	// CommitRouting applies a confirmed routing decision in one statement and
	// moves the document to PROCESSED, returning the updated row.
	CommitRouting(ctx context.Context, id string, commit RoutingCommit) (*model.Document, error)

	// UpdateScope overrides the sharing scope (explicit share action).
	UpdateScope(ctx context.Context, id, scope string) error

	// UpdateStorageKey repairs the storage key (recovery sweep only).
	UpdateStorageKey(ctx context.Context, id, key string) error

	// ListForActor returns documents visible to the actor: everything for an
	// administrator, otherwise rows owned by or shared with the actor.
	ListForActor(ctx context.Context, actor *model.User, pq PageQuery) (*PageResult[model.Document], error)

	// ListByStatuses returns all documents in any of the given states.
	// Used by the startup reconciliation sweep.
	ListByStatuses(ctx context.Context, statuses ...string) ([]model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
