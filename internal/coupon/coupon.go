package coupon

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stitch-kart/internal/model"
)

// OrderContext carries the facts a coupon is validated against.
type OrderContext struct {
	UserID      string
	OrderAmount decimal.Decimal
	ItemCount   int
}

// Result is the outcome of a successful validation: the resolved coupon and
// its computed discount. FreeShipping signals the order pipeline to waive
// the shipping fee; the discount amount itself stays zero in that case.
type Result struct {
	Coupon       *model.Coupon
	Discount     decimal.Decimal
	FreeShipping bool
}

// Store provides the lookups the validator needs. Implemented by the
// coupon and order repositories.
type Store interface {
	// GetByCode resolves a coupon by case-insensitive code; nil when absent.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// CountUserUsage counts redemptions of a coupon by one user.
	CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error)

	// CountUserOrders counts a user's orders, for first-time-user coupons.
	CountUserOrders(ctx context.Context, userID string) (int, error)
}

// Validator validates a coupon code against an order context and computes
// the discount. It never mutates usage; redemption is recorded by the order
// pipeline inside its transaction.
type Validator interface {
	Validate(ctx context.Context, code string, octx OrderContext) (*Result, error)
}
