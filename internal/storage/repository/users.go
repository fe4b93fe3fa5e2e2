package repository

import (
	"context"
	"database/sql"
	"fmt"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/models"
)

const userColumns = `id, email, password_hash, is_active, is_admin, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsAdmin,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser stores a new account and returns its id. A duplicate email
// comes back as a conflict.
func (s *Storage) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO users (email, password_hash)
			  VALUES ($1, $2)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query, email, passwordHash).Scan(&newID)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%s: %w", op, apperr.Conflict("email already registered"))
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail returns the user with the given email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, apperr.NotFound("user not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUser returns the user with the given id.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, apperr.NotFound("user not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ListUsers returns every account.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// PromoteAdmin sets the admin flag on an existing user.
func (s *Storage) PromoteAdmin(ctx context.Context, id int64) error {
	const op = "storage.PromoteAdmin"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET is_admin = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("user not found"))
	}
	return nil
}
