package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"docflow/internal/classifier"
	"docflow/internal/model"
	"docflow/internal/notify"
	"docflow/internal/repository"
	"docflow/internal/routing"
	"docflow/internal/storage"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("document not found")
	ErrForbidden      = errors.New("forbidden")
)

// UploadIntent is returned from BeginUpload: the new document identity and a
// time-limited write capability against the object store.
type UploadIntent struct {
	DocumentID string `json:"document_id"`
	UploadURL  string `json:"upload_url"`
}

// DispatchConfirmation is returned from CompleteUpload. Dispatched is false
// when the call was an idempotent replay and no new classifier dispatch was
// submitted.
type DispatchConfirmation struct {
	Document   *model.Document `json:"document"`
	Dispatched bool            `json:"dispatched"`
}

// RoutingOutcome reports where a classified document ended up.
type RoutingOutcome struct {
	Document *model.Document `json:"document"`
	NewKey   string          `json:"new_path"`
	Folder   string          `json:"folder"`
	Scope    string          `json:"auto_shared_to"`
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// Migrator relocates an object into a routing target folder. Implemented by
// storage.Migrator; declared here so the orchestrator can be tested against a
// mock.
type Migrator interface {
	Migrate(ctx context.Context, oldKey, targetFolder string) (string, error)
}

// DocumentService defines the document lifecycle use cases.
type DocumentService interface {
	// BeginUpload registers an upload intent and mints a write capability.
	BeginUpload(ctx context.Context, filename, declaredType string) (*UploadIntent, error)

	// CompleteUpload confirms the object landed in the store, attaches the
	// owner, and dispatches the classifier. Idempotent.
	CompleteUpload(ctx context.Context, id string, actor *model.User) (*DispatchConfirmation, error)

	// HandleClassifierCallback consumes the worker's result: route, migrate,
	// commit, notify. Idempotent against duplicate delivery.
	HandleClassifierCallback(ctx context.Context, cb classifier.CallbackPayload) (*RoutingOutcome, error)

	// RequestProcessing re-dispatches a document to the scan/OCR worker,
	// marking it PROCESSING first. Administrators only.
	RequestProcessing(ctx context.Context, id string, actor *model.User) error

	// Get returns a single document the actor may view.
	Get(ctx context.Context, id string, actor *model.User) (*model.Document, error)

	// List returns documents visible to the actor using limit/offset.
	List(ctx context.Context, actor *model.User, limit, offset int) (*DocumentListResult, error)

	// View mints a read capability for a document the actor may view.
	View(ctx context.Context, id string, actor *model.User) (string, error)

	// Share overrides the sharing scope. Owner or administrator only. The
	// override persists until the next classification event.
	Share(ctx context.Context, id string, actor *model.User, targetDepartment string) error

	// Reclassify forces a new label and deterministically re-runs routing.
	// Administrators only.
	Reclassify(ctx context.Context, id string, actor *model.User, newLabel string) (*RoutingOutcome, error)

	// Delete removes the stored object first, then the registry row.
	Delete(ctx context.Context, id string, actor *model.User) error

	// ReconcileStorage repairs registry rows whose storage key no longer
	// matches an object in the store. Run at startup.
	ReconcileStorage(ctx context.Context) error
}

// Config carries the orchestrator's tunables.
type Config struct {
	UploadURLTTL      time.Duration
	ViewURLTTL        time.Duration
	ClassifierReadTTL time.Duration
}

// documentService is the concrete lifecycle orchestrator. All collaborators
// are injected at construction; there is no process-global state.
type documentService struct {
	repo       repository.DocumentRepository
	depts      repository.DepartmentRepository
	store      storage.Storage
	migrator   Migrator
	dispatcher classifier.Dispatcher
	publisher  notify.Publisher
	cfg        Config

	locks *keyedMutex
}

// NewDocumentService constructs the lifecycle orchestrator.
func NewDocumentService(
	repo repository.DocumentRepository,
	depts repository.DepartmentRepository,
	store storage.Storage,
	migrator Migrator,
	dispatcher classifier.Dispatcher,
	publisher notify.Publisher,
	cfg Config,
) DocumentService {
	if cfg.UploadURLTTL <= 0 {
		cfg.UploadURLTTL = 5 * time.Minute
	}
	if cfg.ViewURLTTL <= 0 {
		cfg.ViewURLTTL = 5 * time.Minute
	}
	if cfg.ClassifierReadTTL <= 0 {
		cfg.ClassifierReadTTL = 15 * time.Minute
	}
	return &documentService{
		repo:       repo,
		depts:      depts,
		store:      store,
		migrator:   migrator,
		dispatcher: dispatcher,
		publisher:  publisher,
		cfg:        cfg,
		locks:      newKeyedMutex(),
	}
}

func (s *documentService) BeginUpload(ctx context.Context, filename, declaredType string) (*UploadIntent, error) {
	filename = strings.TrimSpace(filename)
	declaredType = strings.TrimSpace(declaredType)
	if filename == "" || declaredType == "" {
		return nil, fmt.Errorf("%w: filename and filetype are required", ErrInvalidRequest)
	}

	id := uuid.NewString()
	key := fmt.Sprintf("uploads/%s-%s", id, filename)

	doc := &model.Document{
		ID:          id,
		Filename:    filename,
		StorageKey:  key,
		FileType:    declaredType,
		Status:      model.StatusUploading,
		SharedScope: model.ScopePrivate,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create registry row: %w", err)
	}

	uploadURL, err := s.store.PresignPut(ctx, key, declaredType, s.cfg.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload url: %w", err)
	}

	return &UploadIntent{DocumentID: id, UploadURL: uploadURL}, nil
}

func (s *documentService) CompleteUpload(ctx context.Context, id string, actor *model.User) (*DispatchConfirmation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidRequest)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// De-duplicate on current state: only a fresh UPLOADING row dispatches.
	// A replayed completion for any later state returns the current row
	// without a second dispatch.
	if doc.Status != model.StatusUploading {
		return &DispatchConfirmation{Document: doc, Dispatched: false}, nil
	}

	scope := actor.Department
	if scope == "" {
		scope = model.ScopePrivate
	}

	doc, err = s.repo.MarkPending(ctx, id, actor.Email, scope)
	if err != nil {
		return nil, fmt.Errorf("mark pending: %w", err)
	}

	s.dispatchClassifier(ctx, doc)

	return &DispatchConfirmation{Document: doc, Dispatched: true}, nil
}

// dispatchClassifier mints a read capability and posts it to the worker in a
// detached goroutine. Failures are logged and never fail the caller.
func (s *documentService) dispatchClassifier(ctx context.Context, doc *model.Document) {
	readURL, err := s.store.PresignGet(ctx, doc.StorageKey, s.cfg.ClassifierReadTTL, nil)
	if err != nil {
		s.logDispatchFailure(doc.ID, fmt.Errorf("presign read url: %w", err))
		return
	}

	req := classifier.DispatchRequest{
		DocumentID: doc.ID,
		ReadURL:    readURL,
		FileType:   doc.FileType,
	}

	go func(ctx context.Context) {
		if err := s.dispatcher.Dispatch(ctx, req); err != nil {
			s.logDispatchFailure(doc.ID, err)
		}
	}(context.WithoutCancel(ctx))
}

func (s *documentService) HandleClassifierCallback(ctx context.Context, cb classifier.CallbackPayload) (*RoutingOutcome, error) {
	if cb.DocumentID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidRequest)
	}

	unlock := s.locks.Lock(cb.DocumentID)
	defer unlock()

	doc, err := s.findByID(ctx, cb.DocumentID)
	if err != nil {
		return nil, err
	}

	// Duplicate delivery after the document already reached PROCESSED is a
	// no-op returning the prior outcome: no migration, no commit, no second
	// notification.
	if doc.Status == model.StatusProcessed {
		return outcomeFromDocument(doc), nil
	}

	if !cb.Success {
		reason := cb.ErrorReason
		if reason == "" {
			reason = "classifier reported failure"
		}
		if err := s.repo.MarkError(ctx, doc.ID, reason); err != nil {
			return nil, fmt.Errorf("mark error: %w", err)
		}
		doc.Status = model.StatusError
		doc.ErrorReason = &reason
		return &RoutingOutcome{Document: doc, NewKey: doc.StorageKey, Scope: doc.SharedScope}, nil
	}

	hasPII := cb.PrivacyReport != nil && cb.PrivacyReport.HasPII
	return s.routeAndCommit(ctx, doc, cb.Classification, hasPII)
}

// routeAndCommit runs the critical section: routing decision, storage
// migration, and the single registry commit. The caller must hold the
// per-document lock.
func (s *documentService) routeAndCommit(ctx context.Context, doc *model.Document, label string, hasPII bool) (*RoutingOutcome, error) {
	catalog, err := s.depts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load department catalog: %w", err)
	}

	decision := routing.Route(label, hasPII, catalog)

	newKey, err := s.migrator.Migrate(ctx, doc.StorageKey, decision.Folder)
	if err != nil {
		// The object was not moved; leave the registry untouched so the
		// document stays in its prior state and the callback can be retried.
		return nil, err
	}

	updated, err := s.repo.CommitRouting(ctx, doc.ID, repository.RoutingCommit{
		StorageKey:     newKey,
		Classification: label,
		HasPII:         hasPII,
		Scope:          decision.Scope,
		ProcessedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("commit routing: %w", err)
	}

	s.publishRouted(ctx, updated)

	return &RoutingOutcome{
		Document: updated,
		NewKey:   newKey,
		Folder:   decision.Folder,
		Scope:    decision.Scope,
	}, nil
}

func (s *documentService) publishRouted(ctx context.Context, doc *model.Document) {
	if s.publisher == nil {
		return
	}

	ev := notify.RoutedEvent{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Scope:      doc.SharedScope,
		StorageKey: doc.StorageKey,
		OwnerEmail: doc.OwnerEmail,
	}
	if doc.Classification != nil {
		ev.Classification = *doc.Classification
	}
	if doc.ProcessedAt != nil {
		ev.ProcessedAt = *doc.ProcessedAt
	}

	if err := s.publisher.PublishDocumentRouted(ctx, ev); err != nil {
		logJSON(map[string]any{
			"component":   "service",
			"event":       "notify_publish_failed",
			"level":       "warn",
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
}

func (s *documentService) RequestProcessing(ctx context.Context, id string, actor *model.User) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: administrator role required", ErrForbidden)
	}

	if err := s.repo.MarkProcessing(ctx, id); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	doc.Status = model.StatusProcessing

	s.dispatchClassifier(ctx, doc)
	return nil
}

func (s *documentService) Get(ctx context.Context, id string, actor *model.User) (*model.Document, error) {
	doc, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(doc, actor) {
		return nil, fmt.Errorf("%w: not allowed to view this document", ErrForbidden)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, actor *model.User, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListForActor(ctx, actor, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) View(ctx context.Context, id string, actor *model.User) (string, error) {
	doc, err := s.Get(ctx, id, actor)
	if err != nil {
		return "", err
	}

	headers := url.Values{}
	headers.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	if doc.FileType != "" {
		headers.Set("response-content-type", doc.FileType)
	}

	viewURL, err := s.store.PresignGet(ctx, doc.StorageKey, s.cfg.ViewURLTTL, headers)
	if err != nil {
		return "", fmt.Errorf("presign view url: %w", err)
	}
	return viewURL, nil
}

func (s *documentService) Share(ctx context.Context, id string, actor *model.User, targetDepartment string) error {
	targetDepartment = strings.TrimSpace(targetDepartment)
	if targetDepartment == "" {
		return fmt.Errorf("%w: target department is required", ErrInvalidRequest)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if !canShare(doc, actor) {
		return fmt.Errorf("%w: only the owner or an administrator can share", ErrForbidden)
	}

	if targetDepartment != model.ScopePrivate && targetDepartment != model.ScopePublic {
		if _, err := s.depts.FindByName(ctx, targetDepartment); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: unknown department %q", ErrNotFound, targetDepartment)
			}
			return fmt.Errorf("look up department: %w", err)
		}
	}

	if err := s.repo.UpdateScope(ctx, id, targetDepartment); err != nil {
		return fmt.Errorf("update scope: %w", err)
	}
	return nil
}

func (s *documentService) Reclassify(ctx context.Context, id string, actor *model.User, newLabel string) (*RoutingOutcome, error) {
	newLabel = strings.TrimSpace(newLabel)
	if newLabel == "" {
		return nil, fmt.Errorf("%w: new classification is required", ErrInvalidRequest)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canReclassify(doc, actor) {
		return nil, fmt.Errorf("%w: administrator role required", ErrForbidden)
	}

	// The stored privacy flag still applies: reclassifying a PII document
	// must not move it out of restricted storage.
	hasPII := doc.HasPII != nil && *doc.HasPII
	return s.routeAndCommit(ctx, doc, newLabel, hasPII)
}

func (s *documentService) Delete(ctx context.Context, id string, actor *model.User) error {
	doc, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if !canDelete(doc, actor) {
		return fmt.Errorf("%w: only the owner or an administrator can delete", ErrForbidden)
	}

	// Object first, registry second: a failed object delete aborts before the
	// row goes away, so the registry never points at nothing.
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !storage.IsNotExist(err) {
		return fmt.Errorf("delete stored object: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *documentService) ReconcileStorage(ctx context.Context) error {
	docs, err := s.repo.ListByStatuses(ctx,
		model.StatusPending, model.StatusProcessing, model.StatusProcessed)
	if err != nil {
		return fmt.Errorf("list documents for reconciliation: %w", err)
	}

	repaired, missing := 0, 0
	for _, doc := range docs {
		if _, err := s.store.Stat(ctx, doc.StorageKey); err == nil {
			continue
		} else if !storage.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", doc.StorageKey, err)
		}

		// The registered key is gone. The only other place the object can
		// legitimately live is its original upload key (a crash between copy
		// and registry commit, or between registry commit and delete-old).
		candidate := fmt.Sprintf("uploads/%s-%s", doc.ID, doc.Filename)
		if candidate == doc.StorageKey {
			missing++
			s.logReconcile(doc.ID, "object_missing", doc.StorageKey)
			continue
		}
		if _, err := s.store.Stat(ctx, candidate); err != nil {
			if storage.IsNotExist(err) {
				missing++
				s.logReconcile(doc.ID, "object_missing", doc.StorageKey)
				continue
			}
			return fmt.Errorf("stat %s: %w", candidate, err)
		}

		if err := s.repo.UpdateStorageKey(ctx, doc.ID, candidate); err != nil {
			return fmt.Errorf("repair storage key for %s: %w", doc.ID, err)
		}
		repaired++
		s.logReconcile(doc.ID, "storage_key_repaired", candidate)
	}

	logJSON(map[string]any{
		"component": "service",
		"event":     "storage_reconcile_done",
		"checked":   len(docs),
		"repaired":  repaired,
		"missing":   missing,
	})
	return nil
}

func (s *documentService) findByID(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) logDispatchFailure(docID string, err error) {
	logJSON(map[string]any{
		"component":   "service",
		"event":       "classifier_dispatch_failed",
		"level":       "warn",
		"document_id": docID,
		"error":       err.Error(),
	})
}

func (s *documentService) logReconcile(docID, event, key string) {
	logJSON(map[string]any{
		"component":   "service",
		"event":       event,
		"level":       "warn",
		"document_id": docID,
		"storage_key": key,
	})
}

// outcomeFromDocument rebuilds the routing outcome of an already-processed
// document from its registry row.
func outcomeFromDocument(doc *model.Document) *RoutingOutcome {
	folder := ""
	if dir := path.Dir(doc.StorageKey); dir != "." && dir != "/" {
		folder = dir + "/"
	}
	return &RoutingOutcome{
		Document: doc,
		NewKey:   doc.StorageKey,
		Folder:   folder,
		Scope:    doc.SharedScope,
	}
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal service log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
