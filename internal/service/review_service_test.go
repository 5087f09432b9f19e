package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stitch-kart/internal/model"
)

func TestReviewService_Submit_Success(t *testing.T) {
	ctx := context.Background()

	product := &model.Product{ID: uuid.New(), Name: "Classic Tee",
		Price: decimal.NewFromInt(100), IsPublished: true}

	mockReviewRepo := new(MockReviewRepository)
	mockProductRepo := new(MockProductRepository)

	svc := NewReviewService(mockReviewRepo, mockProductRepo, zerolog.Nop())

	mockProductRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	mockReviewRepo.On("Create", ctx, mock.AnythingOfType("*model.Review")).Return(nil)

	review, err := svc.Submit(ctx, product.ID, &model.SubmitReviewRequest{
		UserID: "user-1", Rating: 4, Comment: "fits well",
	})

	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, model.ReviewStatusPending, review.Status)
	assert.Equal(t, 4, review.Rating)
	mockReviewRepo.AssertExpectations(t)
}

func TestReviewService_Submit_RatingOutOfRange(t *testing.T) {
	ctx := context.Background()

	mockReviewRepo := new(MockReviewRepository)
	svc := NewReviewService(mockReviewRepo, new(MockProductRepository), zerolog.Nop())

	for _, rating := range []int{0, 6, -1} {
		review, err := svc.Submit(ctx, uuid.New(), &model.SubmitReviewRequest{
			UserID: "user-1", Rating: rating,
		})
		require.Error(t, err)
		assert.Nil(t, review)
	}

	mockReviewRepo.AssertNotCalled(t, "Create")
}

func TestReviewService_Moderate_ApproveRecomputesRating(t *testing.T) {
	ctx := context.Background()
	reviewID := uuid.New()
	productID := uuid.New()

	pending := &model.Review{ID: reviewID, ProductID: productID,
		Rating: 5, Status: model.ReviewStatusPending}
	approved := &model.Review{ID: reviewID, ProductID: productID,
		Rating: 5, Status: model.ReviewStatusApproved}

	mockReviewRepo := new(MockReviewRepository)
	mockTx := new(MockTx)

	svc := NewReviewService(mockReviewRepo, new(MockProductRepository), zerolog.Nop())

	mockReviewRepo.On("GetByID", ctx, reviewID).Return(pending, nil).Once()
	mockReviewRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockReviewRepo.On("UpdateStatus", ctx, mockTx, reviewID, model.ReviewStatusApproved).Return(nil)
	mockReviewRepo.On("RecomputeProductRating", ctx, mockTx, productID).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	mockReviewRepo.On("GetByID", ctx, reviewID).Return(approved, nil).Once()

	review, err := svc.Moderate(ctx, reviewID, true)

	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusApproved, review.Status)
	mockReviewRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestReviewService_Moderate_RecomputeFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	reviewID := uuid.New()
	productID := uuid.New()

	pending := &model.Review{ID: reviewID, ProductID: productID,
		Rating: 5, Status: model.ReviewStatusPending}

	mockReviewRepo := new(MockReviewRepository)
	mockTx := new(MockTx)

	svc := NewReviewService(mockReviewRepo, new(MockProductRepository), zerolog.Nop())

	mockReviewRepo.On("GetByID", ctx, reviewID).Return(pending, nil)
	mockReviewRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockReviewRepo.On("UpdateStatus", ctx, mockTx, reviewID, model.ReviewStatusApproved).Return(nil)
	mockReviewRepo.On("RecomputeProductRating", ctx, mockTx, productID).Return(assert.AnError)
	mockTx.On("Rollback", ctx).Return(nil)

	review, err := svc.Moderate(ctx, reviewID, true)

	require.Error(t, err)
	assert.Nil(t, review)
	assert.True(t, mockTx.rolledBack)
	mockTx.AssertNotCalled(t, "Commit")
}

func TestReviewService_Moderate_NotFound(t *testing.T) {
	ctx := context.Background()

	mockReviewRepo := new(MockReviewRepository)
	svc := NewReviewService(mockReviewRepo, new(MockProductRepository), zerolog.Nop())

	mockReviewRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil, nil)

	review, err := svc.Moderate(ctx, uuid.New(), true)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrReviewNotFound)
	assert.Nil(t, review)
	mockReviewRepo.AssertNotCalled(t, "BeginTx")
}
