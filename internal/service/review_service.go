package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
)

// reviewService implements ReviewService.
type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "review").Logger(),
	}
}

// Submit records a pending review. Pending reviews do not affect the
// product's rating aggregate.
func (s *reviewService) Submit(ctx context.Context, productID uuid.UUID, req *model.SubmitReviewRequest) (*model.Review, error) {
	if req == nil || req.UserID == "" {
		return nil, model.NewDomainError(model.ErrCodeValidation, "user id is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, model.NewDomainError(model.ErrCodeValidation, "rating must be between 1 and 5")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	now := time.Now()
	review := &model.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Status:    model.ReviewStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info().
		Str("review_id", review.ID.String()).
		Str("product_id", productID.String()).
		Int("rating", req.Rating).
		Msg("review submitted")

	return review, nil
}

// Moderate approves or rejects a review. The status change and the
// recomputation of the product's average rating commit in the same
// transaction, so the aggregate never drifts from the approved rows.
func (s *reviewService) Moderate(ctx context.Context, reviewID uuid.UUID, approve bool) (_ *model.Review, err error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, model.ErrReviewNotFound
	}

	status := model.ReviewStatusRejected
	if approve {
		status = model.ReviewStatusApproved
	}

	tx, err := s.reviewRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to moderate review: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.reviewRepo.UpdateStatus(ctx, tx, reviewID, status); err != nil {
		return nil, err
	}

	if err = s.reviewRepo.RecomputeProductRating(ctx, tx, review.ProductID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to moderate review: %w", err)
	}

	s.logger.Info().
		Str("review_id", reviewID.String()).
		Str("status", string(status)).
		Msg("review moderated")

	return s.reviewRepo.GetByID(ctx, reviewID)
}

// ListByProduct retrieves approved reviews for a product.
func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]model.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
