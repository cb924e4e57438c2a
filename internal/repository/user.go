package repository

import (
	"context"

	"docflow/internal/model"
)

// UserRepository resolves actor identities and notification audiences.
type UserRepository interface {
	// FindByEmail returns the user for an upstream-authenticated email, or
	// sql.ErrNoRows when the identity is unknown.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ListEmailsByDepartment returns the addresses of every member of the
	// named department.
	ListEmailsByDepartment(ctx context.Context, department string) ([]string, error)

	// ListAllEmails returns every known address (organization-public fan-out).
	ListAllEmails(ctx context.Context) ([]string, error)
}
