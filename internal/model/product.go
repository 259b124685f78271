package model

import "time"

// Product represents an item listed by a user
type Product struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImagePath   string    `json:"image_path"` // relative path under the uploads dir
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest is the multipart form for creating a product.
// The image travels as a separate file part and is checked in the handler.
type CreateProductRequest struct {
	Name        string  `form:"name" binding:"required"`
	Description string  `form:"description" binding:"required"`
	Price       float64 `form:"price" binding:"required,gt=0"`
}

// UpdateProductRequest allows partial updates. Price is carried as a string so
// a malformed or non-positive value maps to a validation failure on that field
// rather than a bind error on the whole form.
type UpdateProductRequest struct {
	Name        *string `form:"name"`
	Description *string `form:"description"`
	Price       *string `form:"price"`
}
