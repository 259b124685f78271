package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"strconv"
	"time"

	"store_backend/internal/filestore"
	"store_backend/internal/model"
	"store_backend/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("forbidden: user does not have permission for this action")
	ErrInvalidPrice    = errors.New("price must be a positive number")
)

// ProductService defines operations over per-user product records. Every
// mutating or single-item operation resolves ownership from the caller's id.
type ProductService interface {
	Create(ctx context.Context, userID int64, req model.CreateProductRequest, image *multipart.FileHeader) (*model.Product, error)
	GetByID(ctx context.Context, productID, userID int64, userRole string) (*model.Product, error)
	GetUserProducts(ctx context.Context, userID int64) ([]model.Product, error)
	Update(ctx context.Context, productID, userID int64, req model.UpdateProductRequest, image *multipart.FileHeader) (*model.Product, error)
	Delete(ctx context.Context, productID, userID int64, userRole string) error

	// Admin methods
	GetAllProductsAdmin(ctx context.Context) ([]model.Product, error)
}

type productService struct {
	repo  repository.ProductRepository
	files *filestore.FileStore
}

// NewProductService creates a new ProductService
func NewProductService(repo repository.ProductRepository, files *filestore.FileStore) ProductService {
	return &productService{repo: repo, files: files}
}

// Create stores the image and persists the product for the calling user
func (s *productService) Create(ctx context.Context, userID int64, req model.CreateProductRequest, image *multipart.FileHeader) (*model.Product, error) {
	imagePath, err := s.files.Save(image, filestore.ProductImagesDir)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImagePath:   imagePath,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if delErr := s.files.Delete(imagePath); delErr != nil {
			log.Printf("WARN: failed to clean up image %s after product create failure: %v", imagePath, delErr)
		}
		return nil, fmt.Errorf("failed to create product in repo: %w", err)
	}
	return product, nil
}

// GetByID returns a product only to its owner (or an admin)
func (s *productService) GetByID(ctx context.Context, productID, userID int64, userRole string) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if userRole != model.RoleAdmin && product.UserID != userID {
		return nil, ErrForbidden
	}
	return product, nil
}

// GetUserProducts lists the caller's products in storage order
func (s *productService) GetUserProducts(ctx context.Context, userID int64) ([]model.Product, error) {
	products, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user products from repo: %w", err)
	}
	return products, nil
}

// Update applies only the supplied fields. A replacement image deletes the
// old file once the row is committed.
func (s *productService) Update(ctx context.Context, productID, userID int64, req model.UpdateProductRequest, image *multipart.FileHeader) (*model.Product, error) {
	existing, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product for update: %w", err)
	}
	if existing == nil {
		return nil, ErrProductNotFound
	}
	if existing.UserID != userID { // Only the owner can edit
		return nil, ErrForbidden
	}

	// Apply updates
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Price != nil {
		price, err := strconv.ParseFloat(*req.Price, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			return nil, ErrInvalidPrice
		}
		existing.Price = price
	}

	oldImage := ""
	if image != nil {
		imagePath, err := s.files.Save(image, filestore.ProductImagesDir)
		if err != nil {
			return nil, err
		}
		oldImage = existing.ImagePath
		existing.ImagePath = imagePath
	}
	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		if oldImage != "" {
			// Keep the old file since the row still points at it
			if delErr := s.files.Delete(existing.ImagePath); delErr != nil {
				log.Printf("WARN: failed to clean up image %s after product update failure: %v", existing.ImagePath, delErr)
			}
		}
		return nil, fmt.Errorf("failed to update product in repo: %w", err)
	}

	if oldImage != "" {
		if err := s.files.Delete(oldImage); err != nil {
			log.Printf("WARN: failed to delete replaced product image %s: %v", oldImage, err)
		}
	}

	return existing, nil
}

// Delete removes the backing image file and then the record
func (s *productService) Delete(ctx context.Context, productID, userID int64, userRole string) error {
	existing, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to find product for deletion: %w", err)
	}
	if existing == nil {
		return ErrProductNotFound
	}

	if userRole != model.RoleAdmin && existing.UserID != userID {
		return ErrForbidden
	}

	if err := s.files.Delete(existing.ImagePath); err != nil {
		log.Printf("WARN: failed to delete image %s for product %d: %v", existing.ImagePath, productID, err)
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product in repo: %w", err)
	}
	return nil
}

// --- Admin Methods ---

func (s *productService) GetAllProductsAdmin(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products for admin: %w", err)
	}
	return products, nil
}
