package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the order amount, capped
	// at MaxDiscountAmount when set.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed subtracts a fixed amount, capped at the order amount.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeShipping waives the shipping fee; the discount amount
	// itself is zero.
	DiscountFreeShipping DiscountType = "free_shipping"
)

// ValidDiscountType reports whether t is a known discount type.
func ValidDiscountType(t DiscountType) bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeShipping:
		return true
	}
	return false
}

// Coupon is a discount code. Codes are case-insensitive and stored
// upper-cased. CurrentUsage is a derived counter that must always equal the
// number of usage ledger rows; both are mutated in the same transaction.
type Coupon struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	Code              string           `json:"code" db:"code"`
	Description       string           `json:"description,omitempty" db:"description"`
	DiscountType      DiscountType     `json:"discountType" db:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty" db:"max_discount_amount"`
	MinPurchaseAmount decimal.Decimal  `json:"minPurchaseAmount" db:"min_purchase_amount"`
	MinItems          int              `json:"minItems" db:"min_items"`
	StartsAt          time.Time        `json:"startsAt" db:"starts_at"`
	ExpiresAt         time.Time        `json:"expiresAt" db:"expires_at"`
	IsActive          bool             `json:"isActive" db:"is_active"`
	MaxUsage          *int             `json:"maxUsage,omitempty" db:"max_usage"`
	MaxUsagePerUser   int              `json:"maxUsagePerUser" db:"max_usage_per_user"`
	FirstTimeUserOnly bool             `json:"firstTimeUserOnly" db:"first_time_user_only"`
	ApplicableUsers   []string         `json:"applicableUsers,omitempty" db:"applicable_users"`
	ExcludedUsers     []string         `json:"excludedUsers,omitempty" db:"excluded_users"`
	CurrentUsage      int              `json:"currentUsage" db:"current_usage"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}

// CouponUsage is one append-only redemption ledger entry. The
// (coupon, order) pair is unique: retrying the same order never
// double-consumes a coupon.
type CouponUsage struct {
	ID             uuid.UUID       `json:"-" db:"id"`
	CouponID       uuid.UUID       `json:"-" db:"coupon_id"`
	UserID         string          `json:"userId" db:"user_id"`
	OrderID        uuid.UUID       `json:"orderId" db:"order_id"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	UsedAt         time.Time       `json:"usedAt" db:"used_at"`
}

// ValidateCouponRequest is the payload for the coupon preview endpoint.
type ValidateCouponRequest struct {
	Code        string          `json:"code"`
	UserID      string          `json:"userId,omitempty"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	ItemCount   int             `json:"itemCount,omitempty"`
}

// ValidateCouponResponse reports the outcome of a coupon preview.
type ValidateCouponResponse struct {
	Valid        bool            `json:"valid"`
	Code         string          `json:"code"`
	DiscountType DiscountType    `json:"discountType,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"freeShipping"`
}
