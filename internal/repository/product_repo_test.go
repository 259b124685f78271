package repository

import (
	"context"
	"testing"
	"time"

	"store_backend/internal/model"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "user_id", "name", "description", "price", "image_path", "created_at", "updated_at"}

func TestProductRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductRepository(mock)

	now := time.Now()
	p := &model.Product{
		UserID:      1,
		Name:        "Widget",
		Description: "A widget",
		Price:       9.99,
		ImagePath:   "images/w.jpg",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(int64(1), "Widget", "A widget", 9.99, "images/w.jpg", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	err = repo.Create(context.Background(), p)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductRepository(mock)

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(productCols))

	p, err := repo.FindByID(context.Background(), 42)

	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductRepository(mock)

	now := time.Now()
	mock.ExpectQuery(`FROM products WHERE user_id = \$1 ORDER BY id`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(1), int64(1), "Widget", "A widget", 9.99, "images/w.jpg", now, now).
			AddRow(int64(3), int64(1), "Gadget", "A gadget", 19.50, "images/g.jpg", now, now))

	products, err := repo.FindByUser(context.Background(), 1)

	assert.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, "Gadget", products[1].Name)
	for _, p := range products {
		assert.Equal(t, int64(1), p.UserID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_OwnershipEnforced(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductRepository(mock)

	p := &model.Product{ID: 5, UserID: 2, Name: "Widget", Description: "d", Price: 1.0, ImagePath: "images/w.jpg"}

	// No row matches id+user_id, meaning the caller does not own the product
	mock.ExpectQuery(`UPDATE products`).
		WithArgs("Widget", "d", 1.0, "images/w.jpg", int64(5), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	err = repo.Update(context.Background(), p)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductRepository(mock)

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
