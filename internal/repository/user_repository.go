package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/YashVG/techprep-sub000/internal/models"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by username, compared case-insensitively.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ExistsByUsername reports whether the username is taken, ignoring case.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// ExistsByEmail reports whether the email is taken by another account, ignoring case.
// excludeID lets a user keep their own address.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`, email, excludeID); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Create inserts a new user and fills the generated fields.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateEmail changes the stored email address.
func (r *UserRepository) UpdateEmail(ctx context.Context, id int64, email string, updatedAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `UPDATE users SET email = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, email, updatedAt)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
