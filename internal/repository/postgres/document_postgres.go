package postgres

import (
	"context"
	"database/sql"
	"strings"

	"docflow/internal/model"
	"docflow/internal/repository"
)

const documentColumns = `id, filename, storage_path, filetype, status, uploaded_by_email,
		shared_department, classification, has_pii, error_reason, created_at, processed_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.StorageKey,
		&d.FileType,
		&d.Status,
		&d.OwnerEmail,
		&d.SharedScope,
		&d.Classification,
		&d.HasPII,
		&d.ErrorReason,
		&d.CreatedAt,
		&d.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new registry row for an upload intent and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, filename, storage_path, filetype, status, shared_department, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Filename,
		doc.StorageKey,
		doc.FileType,
		doc.Status,
		doc.SharedScope,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// MarkPending attaches owner and default scope and moves the row to PENDING.
func (r *DocumentPostgres) MarkPending(ctx context.Context, id, ownerEmail, scope string) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET status = $2, uploaded_by_email = $3, shared_department = $4
		WHERE id = $1
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q, id, model.StatusPending, ownerEmail, scope))
}

// MarkProcessing moves the row to PROCESSING.
func (r *DocumentPostgres) MarkProcessing(ctx context.Context, id string) error {
	const q = `UPDATE documents SET status = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, model.StatusProcessing)
	return err
}

// MarkError moves the row to ERROR with the worker's diagnostic text.
func (r *DocumentPostgres) MarkError(ctx context.Context, id, reason string) error {
	const q = `
		UPDATE documents
		SET status = $2, error_reason = $3, processed_at = now()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, model.StatusError, reason)
	return err
}

// CommitRouting applies the confirmed routing decision in a single statement.
func (r *DocumentPostgres) CommitRouting(ctx context.Context, id string, commit repository.RoutingCommit) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET status = $2, storage_path = $3, classification = $4, has_pii = $5,
		    shared_department = $6, error_reason = NULL, processed_at = $7
		WHERE id = $1
		RETURNING ` + documentColumns

	// An empty label means the document was never classified; keep the
	// column NULL rather than storing "".
	var classification sql.NullString
	if commit.Classification != "" {
		classification = sql.NullString{String: commit.Classification, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, q,
		id,
		model.StatusProcessed,
		commit.StorageKey,
		classification,
		commit.HasPII,
		commit.Scope,
		commit.ProcessedAt,
	)
	return scanDocument(row)
}

// UpdateScope overrides the sharing scope of a document.
func (r *DocumentPostgres) UpdateScope(ctx context.Context, id, scope string) error {
	const q = `UPDATE documents SET shared_department = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, scope)
	return err
}

// UpdateStorageKey repairs the storage key of a document.
func (r *DocumentPostgres) UpdateStorageKey(ctx context.Context, id, key string) error {
	const q = `UPDATE documents SET storage_path = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, key)
	return err
}

// ListForActor returns documents visible to the actor with LIMIT/OFFSET
// pagination and a total count. Administrators see everything; other actors
// see rows they own, rows shared with their department, and public rows.
func (r *DocumentPostgres) ListForActor(ctx context.Context, actor *model.User, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	var (
		qCount string
		qList  string
		args   []any
	)

	if actor.IsAdmin() {
		qCount = `SELECT COUNT(*) FROM documents`
		qList = `SELECT ` + documentColumns + `
			FROM documents
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`
		args = []any{pq.Limit, pq.Offset}
	} else {
		qCount = `SELECT COUNT(*) FROM documents
			WHERE uploaded_by_email = $1 OR shared_department = $2 OR shared_department = $3`
		qList = `SELECT ` + documentColumns + `
			FROM documents
			WHERE uploaded_by_email = $1 OR shared_department = $2 OR shared_department = $3
			ORDER BY created_at DESC, id DESC
			LIMIT $4 OFFSET $5`
		args = []any{actor.Email, actor.Department, model.ScopePublic}
	}

	var total int
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		args = append(args, pq.Limit, pq.Offset)
	}

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// ListByStatuses returns all documents in any of the given states.
func (r *DocumentPostgres) ListByStatuses(ctx context.Context, statuses ...string) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + `
		FROM documents
		WHERE status = ANY($1::text[])
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, q, statusArray(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Ignore rows affected; deleting an already-deleted row is not an error.
	_, _ = res.RowsAffected()
	return nil
}

// statusArray renders a Postgres text[] literal. Status names are fixed
// identifiers, so no quoting is needed.
func statusArray(statuses []string) string {
	return "{" + strings.Join(statuses, ",") + "}"
}
