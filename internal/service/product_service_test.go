package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stitch-kart/internal/model"
)

func TestProductService_Get_ByID(t *testing.T) {
	ctx := context.Background()

	tee := &model.Product{ID: uuid.New(), Slug: "classic-tee",
		Name: "Classic Tee", Price: decimal.NewFromInt(100)}

	mockProductRepo := new(MockProductRepository)
	svc := NewProductService(mockProductRepo, zerolog.Nop())

	mockProductRepo.On("GetByID", ctx, tee.ID).Return(tee, nil)

	product, err := svc.Get(ctx, tee.ID.String())

	require.NoError(t, err)
	assert.Equal(t, tee.ID, product.ID)
	mockProductRepo.AssertNotCalled(t, "GetBySlug")
}

func TestProductService_Get_BySlug(t *testing.T) {
	ctx := context.Background()

	tee := &model.Product{ID: uuid.New(), Slug: "classic-tee",
		Name: "Classic Tee", Price: decimal.NewFromInt(100)}

	mockProductRepo := new(MockProductRepository)
	svc := NewProductService(mockProductRepo, zerolog.Nop())

	mockProductRepo.On("GetBySlug", ctx, "classic-tee").Return(tee, nil)

	product, err := svc.Get(ctx, "classic-tee")

	require.NoError(t, err)
	assert.Equal(t, "classic-tee", product.Slug)
	mockProductRepo.AssertNotCalled(t, "GetByID")
}

func TestProductService_List_ClampsPagination(t *testing.T) {
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewProductService(mockProductRepo, zerolog.Nop())

	mockProductRepo.On("List", ctx, 20, 0).Return([]model.Product{}, nil)

	_, err := svc.List(ctx, -5, -10)

	require.NoError(t, err)
	mockProductRepo.AssertExpectations(t)
}
