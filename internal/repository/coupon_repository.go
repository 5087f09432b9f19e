package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by its case-insensitive code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value,
			max_discount_amount, min_purchase_amount, min_items, starts_at,
			expires_at, is_active, max_usage, max_usage_per_user,
			first_time_user_only, applicable_users, excluded_users,
			current_usage, created_at, updated_at
		FROM coupons
		WHERE code = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.MaxDiscountAmount, &c.MinPurchaseAmount, &c.MinItems, &c.StartsAt,
		&c.ExpiresAt, &c.IsActive, &c.MaxUsage, &c.MaxUsagePerUser,
		&c.FirstTimeUserOnly, &c.ApplicableUsers, &c.ExcludedUsers,
		&c.CurrentUsage, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// CountUserUsage counts ledger entries for one user against one coupon.
func (r *couponRepository) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM coupon_usages
		WHERE coupon_id = $1 AND user_id = $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, couponID, userID).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", couponID.String()).
			Str("user_id", userID).
			Msg("failed to count coupon usage")
		return 0, fmt.Errorf("failed to count coupon usage: %w", err)
	}

	return count, nil
}

// RecordUsage appends a ledger entry and increments current_usage by
// exactly one, within the provided transaction. The unique
// (coupon_id, order_id) constraint makes retries of the same order no-ops:
// they return (false, nil) and the counter is untouched, so
// current_usage always equals the ledger row count.
func (r *couponRepository) RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage, maxUsage *int, maxUsagePerUser int) (bool, error) {
	// Lock the coupon row so concurrent redemptions serialize. Without the
	// lock two transactions by the same user could each count the committed
	// usages before either commits, and both would pass the per-user cap.
	lockQuery := `SELECT current_usage FROM coupons WHERE id = $1 FOR UPDATE`

	var currentUsage int
	if err := tx.QueryRow(ctx, lockQuery, usage.CouponID).Scan(&currentUsage); err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", usage.CouponID.String()).
			Msg("failed to lock coupon")
		return false, fmt.Errorf("failed to lock coupon: %w", err)
	}

	userCountQuery := `
		SELECT COUNT(*)
		FROM coupon_usages
		WHERE coupon_id = $1 AND user_id = $2
	`

	var userCount int
	if err := tx.QueryRow(ctx, userCountQuery, usage.CouponID, usage.UserID).Scan(&userCount); err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", usage.CouponID.String()).
			Str("user_id", usage.UserID).
			Msg("failed to count coupon usage")
		return false, fmt.Errorf("failed to count coupon usage: %w", err)
	}
	if userCount >= maxUsagePerUser {
		r.logger.Warn().
			Str("coupon_id", usage.CouponID.String()).
			Str("user_id", usage.UserID).
			Str("order_id", usage.OrderID.String()).
			Msg("per-user coupon cap reached at commit time")
		return false, model.ErrCouponUserExceeded
	}

	insertQuery := `
		INSERT INTO coupon_usages (id, coupon_id, user_id, order_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coupon_id, order_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, insertQuery,
		usage.ID, usage.CouponID, usage.UserID, usage.OrderID,
		usage.DiscountAmount, usage.UsedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", usage.CouponID.String()).
			Str("order_id", usage.OrderID.String()).
			Msg("failed to record coupon usage")
		return false, fmt.Errorf("failed to record coupon usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Already redeemed for this order; retry of the same unit of work.
		return false, nil
	}

	// The increment is conditional on the global cap so a race between two
	// orders using the same coupon cannot push usage past max_usage.
	incrementQuery := `
		UPDATE coupons
		SET current_usage = current_usage + 1, updated_at = now()
		WHERE id = $1 AND ($2::int IS NULL OR current_usage < $2::int)
	`

	incTag, err := tx.Exec(ctx, incrementQuery, usage.CouponID, maxUsage)
	if err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", usage.CouponID.String()).
			Msg("failed to increment coupon usage")
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	if incTag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("coupon_id", usage.CouponID.String()).
			Str("order_id", usage.OrderID.String()).
			Msg("coupon usage cap reached at commit time")
		return false, model.ErrCouponUsageExceeded
	}

	return true, nil
}

// Upsert inserts or updates a coupon definition by code.
func (r *couponRepository) Upsert(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, description, discount_type, discount_value,
			max_discount_amount, min_purchase_amount, min_items, starts_at,
			expires_at, is_active, max_usage, max_usage_per_user,
			first_time_user_only, applicable_users, excluded_users,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description,
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			max_discount_amount = EXCLUDED.max_discount_amount,
			min_purchase_amount = EXCLUDED.min_purchase_amount,
			min_items = EXCLUDED.min_items,
			starts_at = EXCLUDED.starts_at,
			expires_at = EXCLUDED.expires_at,
			is_active = EXCLUDED.is_active,
			max_usage = EXCLUDED.max_usage,
			max_usage_per_user = EXCLUDED.max_usage_per_user,
			first_time_user_only = EXCLUDED.first_time_user_only,
			applicable_users = EXCLUDED.applicable_users,
			excluded_users = EXCLUDED.excluded_users,
			updated_at = EXCLUDED.updated_at
	`

	code := strings.ToUpper(strings.TrimSpace(c.Code))

	_, err := r.pool.Exec(ctx, query,
		c.ID, code, c.Description, c.DiscountType, c.DiscountValue,
		c.MaxDiscountAmount, c.MinPurchaseAmount, c.MinItems, c.StartsAt,
		c.ExpiresAt, c.IsActive, c.MaxUsage, c.MaxUsagePerUser,
		c.FirstTimeUserOnly, c.ApplicableUsers, c.ExcludedUsers, c.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to upsert coupon")
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}

	return nil
}
