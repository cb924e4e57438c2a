package repository

import (
	"context"

	"docflow/internal/model"
)

// DepartmentRepository reads the routing catalog. The catalog is administered
// outside this service; this interface is read-only by design.
type DepartmentRepository interface {
	// ListAll returns the full catalog in name order.
	ListAll(ctx context.Context) ([]model.Department, error)

	// FindByName returns a single department or sql.ErrNoRows.
	FindByName(ctx context.Context, name string) (*model.Department, error)
}
