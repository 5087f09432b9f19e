package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stitch-kart/internal/coupon"
	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
)

// couponStore adapts the coupon and order repositories to the lookups the
// validator needs.
type couponStore struct {
	couponRepo repository.CouponRepository
	orderRepo  repository.OrderRepository
}

// NewCouponStore bridges the repositories into a coupon.Store.
func NewCouponStore(couponRepo repository.CouponRepository, orderRepo repository.OrderRepository) coupon.Store {
	return &couponStore{couponRepo: couponRepo, orderRepo: orderRepo}
}

func (s *couponStore) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return s.couponRepo.GetByCode(ctx, code)
}

func (s *couponStore) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	return s.couponRepo.CountUserUsage(ctx, couponID, userID)
}

func (s *couponStore) CountUserOrders(ctx context.Context, userID string) (int, error) {
	return s.orderRepo.CountByUser(ctx, userID)
}

// couponService implements CouponService.
type couponService struct {
	validator coupon.Validator
	logger    zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(validator coupon.Validator, logger zerolog.Logger) CouponService {
	return &couponService{
		validator: validator,
		logger:    logger.With().Str("service", "coupon").Logger(),
	}
}

// Preview validates a code without consuming usage. Rejections that are
// part of the coupon domain come back as a valid=false response rather than
// an error; infrastructure failures are still errors.
func (s *couponService) Preview(ctx context.Context, req *model.ValidateCouponRequest) (*model.ValidateCouponResponse, error) {
	if req == nil || req.Code == "" {
		return nil, model.NewDomainError(model.ErrCodeValidation, "coupon code is required")
	}

	result, err := s.validator.Validate(ctx, req.Code, coupon.OrderContext{
		UserID:      req.UserID,
		OrderAmount: req.OrderAmount,
		ItemCount:   req.ItemCount,
	})
	if err != nil {
		if isCouponRejection(err) {
			s.logger.Debug().Str("coupon_code", req.Code).Err(err).Msg("coupon preview rejected")
			return &model.ValidateCouponResponse{Valid: false, Code: req.Code}, nil
		}
		return nil, err
	}

	return &model.ValidateCouponResponse{
		Valid:        true,
		Code:         result.Coupon.Code,
		DiscountType: result.Coupon.DiscountType,
		Discount:     result.Discount,
		FreeShipping: result.FreeShipping,
	}, nil
}

// isCouponRejection reports whether err is a domain-level coupon rejection
// as opposed to an infrastructure failure.
func isCouponRejection(err error) bool {
	var reqErr *model.CouponRequirementsError
	if errors.As(err, &reqErr) {
		return true
	}
	switch {
	case errors.Is(err, model.ErrCouponNotFound),
		errors.Is(err, model.ErrCouponInactive),
		errors.Is(err, model.ErrCouponNotStarted),
		errors.Is(err, model.ErrCouponExpired),
		errors.Is(err, model.ErrCouponUsageExceeded),
		errors.Is(err, model.ErrCouponUserExceeded),
		errors.Is(err, model.ErrCouponNotEligible),
		errors.Is(err, model.ErrCouponFirstTimeOnly):
		return true
	}
	return false
}
