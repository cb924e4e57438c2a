package postgres

import (
	"context"
	"database/sql"
	"strings"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// allowedTypesSeparator joins allowed_document_types into one column so the
// TEXT[] can be read through database/sql without a driver-specific array
// type. Labels are free text but never contain newlines.
const allowedTypesSeparator = "\n"

// DepartmentPostgres is a PostgreSQL implementation of repository.DepartmentRepository.
type DepartmentPostgres struct {
	db *sql.DB
}

// NewDepartmentPostgres creates a new DepartmentPostgres repository.
func NewDepartmentPostgres(db *sql.DB) *DepartmentPostgres {
	return &DepartmentPostgres{db: db}
}

var _ repository.DepartmentRepository = (*DepartmentPostgres)(nil)

// ListAll returns the full routing catalog in name order.
func (r *DepartmentPostgres) ListAll(ctx context.Context) ([]model.Department, error) {
	const q = `
		SELECT id, name, description, array_to_string(allowed_document_types, E'\n')
		FROM departments
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	depts := make([]model.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, *d)
	}
	return depts, rows.Err()
}

// FindByName returns a single department or sql.ErrNoRows.
func (r *DepartmentPostgres) FindByName(ctx context.Context, name string) (*model.Department, error) {
	const q = `
		SELECT id, name, description, array_to_string(allowed_document_types, E'\n')
		FROM departments
		WHERE name = $1`
	return scanDepartment(r.db.QueryRowContext(ctx, q, name))
}

func scanDepartment(row rowScanner) (*model.Department, error) {
	var (
		d     model.Department
		types string
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &types); err != nil {
		return nil, err
	}
	if types != "" {
		d.AllowedDocumentTypes = strings.Split(types, allowedTypesSeparator)
	} else {
		d.AllowedDocumentTypes = []string{}
	}
	return &d, nil
}
