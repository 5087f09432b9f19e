package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"stitch-kart/internal/model"
)

// ProductRepository defines the interface for product data access.
// DebitStock and RestoreStock run inside the order unit of work and take
// the transaction explicitly.
type ProductRepository interface {
	// List retrieves published products with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetBySlug retrieves a single product by its slug. Returns nil when absent.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// LowStock retrieves published products at or below their low stock threshold.
	LowStock(ctx context.Context) ([]model.Product, error)

	// Create inserts a product. Used by seeding and catalogue management.
	Create(ctx context.Context, p *model.Product) error

	// DebitStock atomically decrements stock and increments total_sales for
	// one product, conditional on sufficient stock. Returns false when the
	// conditional update matched no row, i.e. stock was insufficient at the
	// moment of the decrement.
	DebitStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (bool, error)

	// RestoreStock is the exact inverse of DebitStock, used by order
	// cancellation. total_sales is floored at zero.
	RestoreStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
}

// CartRepository defines the interface for cart data access. One cart
// exists per user; GetOrCreate creates it lazily.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one if needed.
	// Items are populated.
	GetOrCreate(ctx context.Context, userID string) (*model.Cart, error)

	// UpsertItem adds a line to the cart, merging by summing quantity when a
	// line with the same (product, size, color) already exists. Returns the
	// resulting line.
	UpsertItem(ctx context.Context, item *model.CartItem) (*model.CartItem, error)

	// UpdateItemQuantity sets the quantity of an existing line. Returns
	// false when the line does not belong to the cart.
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error)

	// RemoveItem deletes a line. Returns false when the line does not
	// belong to the cart.
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)

	// SetCoupon stores the coupon code and its computed discount together.
	SetCoupon(ctx context.Context, cartID uuid.UUID, code string, discount decimal.Decimal) error

	// ClearCoupon removes the coupon association and its cached discount.
	ClearCoupon(ctx context.Context, cartID uuid.UUID) error

	// Clear removes all lines and the coupon association. When tx is
	// non-nil the clear joins that transaction (order creation clears the
	// originating cart atomically with the order commit).
	Clear(ctx context.Context, tx pgx.Tx, userID string) error
}

// OrderRepository defines the interface for order data access. Creation and
// cancellation run as multi-statement transactions started via BeginTx.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's line snapshots within the
	// provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// AppendStatusHistory appends one immutable status history entry.
	AppendStatusHistory(ctx context.Context, tx pgx.Tx, entry *model.StatusEntry) error

	// UpdateStatus sets the order status and the matching status timestamp
	// within the provided transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus, at time.Time, cancelReason *string) error

	// UpdatePayment sets payment status and payment id.
	UpdatePayment(ctx context.Context, orderID uuid.UUID, status model.PaymentStatus, paymentID *string) error

	// GetByID retrieves an order with its items and status history.
	// Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIDForUpdate retrieves the order row locked within the
	// transaction, without items or history.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first, without items.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// GetItems retrieves the line snapshots for an order.
	GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error)

	// CountByUser counts a user's orders, used by first-time-user coupon
	// eligibility.
	CountByUser(ctx context.Context, userID string) (int, error)
}

// CouponRepository defines the interface for coupon data access and the
// redemption ledger.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its case-insensitive code. Returns
	// nil when absent.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// CountUserUsage counts ledger entries for one user against one coupon.
	CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error)

	// RecordUsage appends a ledger entry and increments current_usage by
	// exactly one, within the provided transaction. The coupon row is
	// locked first, so concurrent redemptions serialize and both the
	// global and per-user caps hold at commit time: exceeding max_usage
	// returns model.ErrCouponUsageExceeded, exceeding maxUsagePerUser
	// returns model.ErrCouponUserExceeded. The append is idempotent per
	// (coupon, order): a retry of the same order returns (false, nil)
	// without consuming usage again.
	RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage, maxUsage *int, maxUsagePerUser int) (bool, error)

	// Upsert inserts or updates a coupon definition by code. Used by the
	// ingest command.
	Upsert(ctx context.Context, c *model.Coupon) error
}

// ReviewRepository defines the interface for review data access and the
// derived product rating aggregate.
type ReviewRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a review in pending status.
	Create(ctx context.Context, review *model.Review) error

	// GetByID retrieves a review. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)

	// UpdateStatus sets the moderation status within the provided transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, reviewID uuid.UUID, status model.ReviewStatus) error

	// RecomputeProductRating recomputes average_rating and review_count
	// over approved reviews, within the provided transaction.
	RecomputeProductRating(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error

	// ListByProduct retrieves approved reviews for a product, newest first.
	ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]model.Review, error)
}
