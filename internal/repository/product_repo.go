package repository

import (
	"context"
	"errors"
	"fmt"

	"store_backend/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProductRepository defines operations for product data
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	FindByUser(ctx context.Context, userID int64) ([]model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
}

type productRepository struct {
	db Querier
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db Querier) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	sql := `INSERT INTO products (user_id, name, description, price, image_path, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, p.UserID, p.Name, p.Description, p.Price, p.ImagePath, p.CreatedAt, p.UpdatedAt).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by its ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	p := &model.Product{}
	sql := `SELECT id, user_id, name, description, price, image_path, created_at, updated_at
            FROM products WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// FindByUser retrieves all products owned by a user in storage order
func (r *productRepository) FindByUser(ctx context.Context, userID int64) ([]model.Product, error) {
	sql := `SELECT id, user_id, name, description, price, image_path, created_at, updated_at
            FROM products WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by user: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// FindAll retrieves every product, for admin listings
func (r *productRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	sql := `SELECT id, user_id, name, description, price, image_path, created_at, updated_at
            FROM products ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query all products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

// Update modifies an existing product
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	sql := `UPDATE products
            SET name = $1, description = $2, price = $3, image_path = $4, updated_at = NOW()
            WHERE id = $5 AND user_id = $6 RETURNING updated_at` // ensure user_id matches for ownership
	err := r.db.QueryRow(ctx, sql, p.Name, p.Description, p.Price, p.ImagePath, p.ID, p.UserID).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product not found or not owned by user for update")
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete removes a product from the database
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	sql := `DELETE FROM products WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("product not found for deletion")
	}
	return nil
}
