package coupon

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
)

// validator implements Validator against a Store.
type validator struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewValidator creates a coupon validator.
func NewValidator(store Store, logger zerolog.Logger) Validator {
	return &validator{
		store:  store,
		logger: logger.With().Str("component", "coupon-validator").Logger(),
		now:    time.Now,
	}
}

// Validate resolves the code, checks validity window, usage caps and user
// eligibility, enforces minimum purchase requirements, and computes the
// discount. Each rejection carries a distinct reason.
func (v *validator) Validate(ctx context.Context, code string, octx OrderContext) (*Result, error) {
	c, err := v.store.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}
	if c == nil {
		v.logger.Debug().Str("code", code).Msg("coupon not found")
		return nil, model.ErrCouponNotFound
	}

	if err := v.checkValidity(c); err != nil {
		v.logger.Debug().Str("code", c.Code).Err(err).Msg("coupon invalid")
		return nil, err
	}

	if octx.UserID != "" {
		if err := v.checkUserEligibility(ctx, c, octx.UserID); err != nil {
			v.logger.Debug().
				Str("code", c.Code).
				Str("user_id", octx.UserID).
				Err(err).
				Msg("user not eligible for coupon")
			return nil, err
		}
	}

	if err := checkRequirements(c, octx); err != nil {
		v.logger.Debug().Str("code", c.Code).Err(err).Msg("coupon requirements not met")
		return nil, err
	}

	discount, err := CalculateDiscount(c, octx.OrderAmount)
	if err != nil {
		return nil, err
	}

	v.logger.Debug().
		Str("code", c.Code).
		Str("discount", discount.String()).
		Msg("coupon validated")

	return &Result{
		Coupon:       c,
		Discount:     discount,
		FreeShipping: c.DiscountType == model.DiscountFreeShipping,
	}, nil
}

// checkValidity enforces active flag, validity window and the global usage cap.
func (v *validator) checkValidity(c *model.Coupon) error {
	if !c.IsActive {
		return model.ErrCouponInactive
	}

	now := v.now()
	if now.Before(c.StartsAt) {
		return model.ErrCouponNotStarted
	}
	if !now.Before(c.ExpiresAt) {
		return model.ErrCouponExpired
	}

	if c.MaxUsage != nil && c.CurrentUsage >= *c.MaxUsage {
		return model.ErrCouponUsageExceeded
	}

	return nil
}

// checkUserEligibility enforces allow/deny lists, per-user usage caps and
// the first-time-user rule.
func (v *validator) checkUserEligibility(ctx context.Context, c *model.Coupon, userID string) error {
	if slices.Contains(c.ExcludedUsers, userID) {
		return model.ErrCouponNotEligible
	}

	if len(c.ApplicableUsers) > 0 && !slices.Contains(c.ApplicableUsers, userID) {
		return model.ErrCouponNotEligible
	}

	if c.FirstTimeUserOnly {
		orders, err := v.store.CountUserOrders(ctx, userID)
		if err != nil {
			return fmt.Errorf("count user orders: %w", err)
		}
		if orders > 0 {
			return model.ErrCouponFirstTimeOnly
		}
	}

	used, err := v.store.CountUserUsage(ctx, c.ID, userID)
	if err != nil {
		return fmt.Errorf("count user usage: %w", err)
	}
	if used >= c.MaxUsagePerUser {
		return model.ErrCouponUserExceeded
	}

	return nil
}

// checkRequirements enforces minimum purchase amount and minimum item count
// before any discount calculation.
func checkRequirements(c *model.Coupon, octx OrderContext) error {
	if c.MinPurchaseAmount.IsPositive() && octx.OrderAmount.LessThan(c.MinPurchaseAmount) {
		return &model.CouponRequirementsError{
			Code:              c.Code,
			MinPurchaseAmount: c.MinPurchaseAmount,
			OrderAmount:       octx.OrderAmount,
		}
	}

	if c.MinItems > 0 && octx.ItemCount < c.MinItems {
		return &model.CouponRequirementsError{
			Code:      c.Code,
			MinItems:  c.MinItems,
			ItemCount: octx.ItemCount,
		}
	}

	return nil
}
