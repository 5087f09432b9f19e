package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeCartItemNotFound    = "CART_ITEM_NOT_FOUND"
	ErrCodeCouponNotFound      = "COUPON_NOT_FOUND"
	ErrCodeReviewNotFound      = "REVIEW_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInvalidCoupon       = "INVALID_COUPON"
	ErrCodeCouponRequirements  = "COUPON_REQUIREMENTS_NOT_MET"
	ErrCodeIllegalTransition   = "ILLEGAL_STATE_TRANSITION"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError carries a machine-readable code alongside the message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound  = NewDomainError(ErrCodeProductNotFound, "product not found")
	ErrOrderNotFound    = NewDomainError(ErrCodeOrderNotFound, "order not found")
	ErrCartItemNotFound = NewDomainError(ErrCodeCartItemNotFound, "cart item not found")
	ErrCouponNotFound   = NewDomainError(ErrCodeCouponNotFound, "coupon not found")
	ErrReviewNotFound   = NewDomainError(ErrCodeReviewNotFound, "review not found")
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "quantity must be greater than zero")
	ErrEmptyOrder       = NewDomainError(ErrCodeValidation, "order must contain at least one item")

	ErrCouponInactive      = NewDomainError(ErrCodeInvalidCoupon, "coupon is not active")
	ErrCouponNotStarted    = NewDomainError(ErrCodeInvalidCoupon, "coupon is not yet valid")
	ErrCouponExpired       = NewDomainError(ErrCodeInvalidCoupon, "coupon has expired")
	ErrCouponUsageExceeded = NewDomainError(ErrCodeInvalidCoupon, "coupon usage limit reached")
	ErrCouponUserExceeded  = NewDomainError(ErrCodeInvalidCoupon, "coupon usage limit reached for this user")
	ErrCouponNotEligible   = NewDomainError(ErrCodeInvalidCoupon, "user is not eligible for this coupon")
	ErrCouponFirstTimeOnly = NewDomainError(ErrCodeInvalidCoupon, "coupon is limited to first-time customers")
)

// InsufficientStockError names the offending product and the requested vs
// available quantities. It covers both the pre-check failure and the atomic
// decrement finding insufficient stock at commit time; AtCommit
// distinguishes the two for logging and retries.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
	AtCommit    bool
}

func (e *InsufficientStockError) Error() string {
	if e.AtCommit {
		return fmt.Sprintf("insufficient stock for %s: requested %d", e.ProductName, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// IllegalTransitionError names the rejected status move.
type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// CouponRequirementsError names the shortfall that prevented a coupon from
// applying.
type CouponRequirementsError struct {
	Code              string
	MinPurchaseAmount decimal.Decimal
	OrderAmount       decimal.Decimal
	MinItems          int
	ItemCount         int
}

func (e *CouponRequirementsError) Error() string {
	if e.MinItems > 0 && e.ItemCount < e.MinItems {
		return fmt.Sprintf("coupon %s requires at least %d items, cart has %d",
			e.Code, e.MinItems, e.ItemCount)
	}
	return fmt.Sprintf("coupon %s requires a minimum purchase of %s, order amount is %s",
		e.Code, e.MinPurchaseAmount.StringFixed(2), e.OrderAmount.StringFixed(2))
}
