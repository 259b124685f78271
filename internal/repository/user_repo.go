package repository

import (
	"context"
	"errors"
	"fmt"

	"store_backend/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateUsername is returned by Create when the normalized username
// already exists, i.e. a concurrent registration won the race past the
// service-level lookup.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db Querier
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.NormalizedUsername = model.NormalizeUsername(user.Username)
	sql := `INSERT INTO users (username, normalized_username, password_hash, phone, email, profile_picture, role, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRow(ctx, sql,
		user.Username, user.NormalizedUsername, user.PasswordHash,
		user.Phone, user.Email, user.ProfilePicture, user.Role, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername retrieves a user via the case-insensitive normalized key
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, username, normalized_username, password_hash, phone, email, profile_picture, role, created_at
            FROM users WHERE normalized_username = $1`
	err := r.db.QueryRow(ctx, sql, model.NormalizeUsername(username)).Scan(
		&user.ID, &user.Username, &user.NormalizedUsername, &user.PasswordHash,
		&user.Phone, &user.Email, &user.ProfilePicture, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found is not an error for this method's contract, service layer handles it
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, username, normalized_username, password_hash, phone, email, profile_picture, role, created_at
            FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&user.ID, &user.Username, &user.NormalizedUsername, &user.PasswordHash,
		&user.Phone, &user.Email, &user.ProfilePicture, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// Update persists the mutable profile fields of a user
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	sql := `UPDATE users SET phone = $1, email = $2, password_hash = $3, profile_picture = $4 WHERE id = $5`
	cmdTag, err := r.db.Exec(ctx, sql, user.Phone, user.Email, user.PasswordHash, user.ProfilePicture, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user not found for update")
	}
	return nil
}

// Delete removes a user; owned products go with the FK cascade
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	sql := `DELETE FROM users WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user not found for deletion")
	}
	return nil
}
