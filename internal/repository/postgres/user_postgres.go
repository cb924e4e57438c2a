package postgres

import (
	"context"
	"database/sql"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// FindByEmail resolves an upstream-authenticated email to a user row.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, email, full_name, department, role
		FROM users
		WHERE email = $1`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.Department,
		&u.Role,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListEmailsByDepartment returns member addresses of the named department.
func (r *UserPostgres) ListEmailsByDepartment(ctx context.Context, department string) ([]string, error) {
	const q = `SELECT email FROM users WHERE department = $1 ORDER BY email ASC`
	return r.listEmails(ctx, q, department)
}

// ListAllEmails returns every known address.
func (r *UserPostgres) ListAllEmails(ctx context.Context) ([]string, error) {
	const q = `SELECT email FROM users ORDER BY email ASC`
	return r.listEmails(ctx, q)
}

func (r *UserPostgres) listEmails(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
