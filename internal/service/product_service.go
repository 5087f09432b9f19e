package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves published products with pagination.
func (s *productService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get retrieves one product by ID or slug.
func (s *productService) Get(ctx context.Context, idOrSlug string) (*model.Product, error) {
	var product *model.Product
	var err error

	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.productRepo.GetByID(ctx, id)
	} else {
		product, err = s.productRepo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// LowStock retrieves products at or below their low stock threshold.
func (s *productService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}
