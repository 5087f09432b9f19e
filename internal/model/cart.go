package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user mutable collection of line items. Exactly one cart
// exists per user; it is created lazily on first access.
type Cart struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     string          `json:"userId" db:"user_id"`
	Items      []CartItem      `json:"items"`
	CouponCode *string         `json:"couponCode,omitempty" db:"coupon_code"`
	Discount   decimal.Decimal `json:"discount" db:"discount"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// CartItem is one line in a cart. No two lines in a cart may share the same
// (product, size, color) triple; additions matching an existing line merge
// by summing quantity. UnitPrice is captured when the item is first added.
type CartItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	CartID    uuid.UUID       `json:"-" db:"cart_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Size      string          `json:"size,omitempty" db:"size"`
	Color     string          `json:"color,omitempty" db:"color"`
	AddedAt   time.Time       `json:"addedAt" db:"added_at"`
}

// Subtotal derives the cart subtotal from its lines.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	return subtotal
}

// Total derives the cart total, floored at zero.
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal().Sub(c.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// AddItemRequest is the payload for adding an item to a cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// UpdateItemRequest is the payload for changing a cart line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// ApplyCouponRequest is the payload for attaching a coupon to a cart.
type ApplyCouponRequest struct {
	Code string `json:"code"`
}

// CartResponse is the cart payload returned by every cart endpoint,
// including the derived subtotal and total.
type CartResponse struct {
	Cart     *Cart           `json:"cart"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// NewCartResponse builds a CartResponse with derived amounts populated.
func NewCartResponse(cart *Cart) *CartResponse {
	return &CartResponse{
		Cart:     cart,
		Subtotal: cart.Subtotal(),
		Total:    cart.Total(),
	}
}
