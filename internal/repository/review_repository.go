package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
)

// reviewRepository implements the ReviewRepository interface using PostgreSQL.
type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *reviewRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a review in pending status.
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		review.ID, review.ProductID, review.UserID, review.Rating,
		review.Comment, review.Status, review.CreatedAt, review.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", review.ProductID.String()).
			Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review.
func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, status, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	var review model.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID, &review.ProductID, &review.UserID, &review.Rating,
		&review.Comment, &review.Status, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("review_id", id.String()).Msg("review not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to query review")
		return nil, fmt.Errorf("failed to query review: %w", err)
	}

	return &review, nil
}

// UpdateStatus sets the moderation status within the provided transaction.
func (r *reviewRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, reviewID uuid.UUID, status model.ReviewStatus) error {
	query := `UPDATE reviews SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, reviewID, status)
	if err != nil {
		r.logger.Error().Err(err).
			Str("review_id", reviewID.String()).
			Str("status", string(status)).
			Msg("failed to update review status")
		return fmt.Errorf("failed to update review status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}

	return nil
}

// RecomputeProductRating recomputes average_rating and review_count over
// approved reviews. Runs in the moderation transaction so the aggregate
// cannot drift from the source rows.
func (r *reviewRepository) RecomputeProductRating(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	query := `
		UPDATE products
		SET average_rating = COALESCE((
			SELECT ROUND(AVG(rating)::numeric, 2)
			FROM reviews
			WHERE product_id = $1 AND status = 'approved'
		), 0),
		review_count = (
			SELECT COUNT(*)
			FROM reviews
			WHERE product_id = $1 AND status = 'approved'
		),
		updated_at = now()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Msg("failed to recompute product rating")
		return fmt.Errorf("failed to recompute product rating: %w", err)
	}

	return nil
}

// ListByProduct retrieves approved reviews for a product, newest first.
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]model.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, status, created_at, updated_at
		FROM reviews
		WHERE product_id = $1 AND status = 'approved'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var review model.Review
		err := rows.Scan(
			&review.ID, &review.ProductID, &review.UserID, &review.Rating,
			&review.Comment, &review.Status, &review.CreatedAt, &review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
