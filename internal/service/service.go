package service

import (
	"context"

	"github.com/google/uuid"

	"stitch-kart/internal/model"
)

// OrderService encapsulates the order pipeline: creation as a single unit
// of work, the status state machine, cancellation compensation, and the
// payment axis.
type OrderService interface {
	// Create transforms an order request into a durable order. Stock
	// debits, coupon redemption and the originating cart's clear commit
	// together with the order or not at all.
	Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order with items and status history. Returns
	// nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// UpdateStatus advances the order through the fulfilment state
	// machine. A move to cancelled triggers stock restoration.
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error)

	// Cancel cancels an order with compensating stock restoration.
	// Rejected once the order is delivered.
	Cancel(ctx context.Context, id uuid.UUID, req *model.CancelOrderRequest) (*model.Order, error)

	// MarkPaid records successful payment capture. Idempotent.
	MarkPaid(ctx context.Context, id uuid.UUID, paymentID string) (*model.Order, error)
}

// CartService encapsulates the per-user cart aggregate.
type CartService interface {
	// Get returns the user's cart, creating it lazily.
	Get(ctx context.Context, userID string) (*model.CartResponse, error)

	// AddItem validates stock and adds a line, merging by summing quantity
	// when the (product, size, color) triple already exists.
	AddItem(ctx context.Context, userID string, req *model.AddItemRequest) (*model.CartResponse, error)

	// UpdateItem sets a line's quantity.
	UpdateItem(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*model.CartResponse, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) (*model.CartResponse, error)

	// ApplyCoupon validates the code against the cart's live subtotal and
	// owner, then stores the code and discount together.
	ApplyCoupon(ctx context.Context, userID, code string) (*model.CartResponse, error)

	// RemoveCoupon clears the coupon association and cached discount.
	RemoveCoupon(ctx context.Context, userID string) (*model.CartResponse, error)

	// Clear removes all lines and the coupon association.
	Clear(ctx context.Context, userID string) (*model.CartResponse, error)
}

// ProductService exposes the catalogue read surface.
type ProductService interface {
	// List retrieves published products with pagination.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// Get retrieves one product by ID or slug. Returns nil when absent.
	Get(ctx context.Context, idOrSlug string) (*model.Product, error)

	// LowStock retrieves products at or below their low stock threshold.
	LowStock(ctx context.Context) ([]model.Product, error)
}

// CouponService exposes the coupon preview endpoint.
type CouponService interface {
	// Preview validates a code against an order amount without consuming
	// usage.
	Preview(ctx context.Context, req *model.ValidateCouponRequest) (*model.ValidateCouponResponse, error)
}

// ReviewService encapsulates review submission and moderation with the
// derived product rating aggregate.
type ReviewService interface {
	// Submit records a pending review.
	Submit(ctx context.Context, productID uuid.UUID, req *model.SubmitReviewRequest) (*model.Review, error)

	// Moderate approves or rejects a review and recomputes the product's
	// average rating in the same transaction.
	Moderate(ctx context.Context, reviewID uuid.UUID, approve bool) (*model.Review, error)

	// ListByProduct retrieves approved reviews for a product.
	ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]model.Review, error)
}
