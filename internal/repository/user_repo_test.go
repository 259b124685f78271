package repository

import (
	"context"
	"testing"
	"time"

	"store_backend/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	phone := "555"
	email := "a@x.com"
	user := &model.User{
		Username:       "Alice",
		PasswordHash:   "hashed",
		Phone:          &phone,
		Email:          &email,
		ProfilePicture: "profilePictures/p.jpg",
		Role:           model.RoleUser,
		CreatedAt:      time.Now(),
	}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Alice", "alice", "hashed", &phone, &email, "profilePictures/p.jpg", model.RoleUser, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	err = repo.Create(context.Background(), user)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.NormalizedUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	user := &model.User{
		Username:     "Alice",
		PasswordHash: "hashed",
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Alice", "alice", "hashed", user.Phone, user.Email, "", model.RoleUser, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_normalized_username_key"})

	err = repo.Create(context.Background(), user)

	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername_CaseInsensitive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	cols := []string{"id", "username", "normalized_username", "password_hash", "phone", "email", "profile_picture", "role", "created_at"}
	mock.ExpectQuery(`FROM users WHERE normalized_username = \$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(1), "Alice", "alice", "hashed", (*string)(nil), (*string)(nil), "profilePictures/p.jpg", model.RoleUser, time.Now()))

	// Lookup with different casing must hit the normalized key
	user, err := repo.FindByUsername(context.Background(), "ALICE")

	assert.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`FROM users WHERE normalized_username = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	user, err := repo.FindByUsername(context.Background(), "ghost")

	assert.NoError(t, err, "not found is not an error for this contract")
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.Error(t, repo.Delete(context.Background(), 99))
	assert.NoError(t, mock.ExpectationsWereMet())
}
