package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

// PaymentStatus tracks the payment axis, orthogonal to OrderStatus.
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// statusTransitions defines the legal order status moves. Cancellation is
// handled separately: allowed from every state except delivered, cancelled
// and returned.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed},
	OrderStatusConfirmed:  {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusReturned},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	if to == OrderStatusCancelled {
		switch from {
		case OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
			return false
		}
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusReturned:
		return true
	}
	return false
}

// Address is a shipping or billing address, copied by value onto orders.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Order is a durable purchase record. Line items are point-in-time
// snapshots that never change, even if the product is later edited or
// deleted. The pricing identity total = subtotal + tax + shippingFee -
// discount holds exactly.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"orderNumber" db:"order_number"`
	UserID          string          `json:"userId" db:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shippingAddress" db:"shipping_address"`
	BillingAddress  Address         `json:"billingAddress" db:"billing_address"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	ShippingFee     decimal.Decimal `json:"shippingFee" db:"shipping_fee"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	Total           decimal.Decimal `json:"total" db:"total"`
	CouponCode      *string         `json:"couponCode,omitempty" db:"coupon_code"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	PaymentID       *string         `json:"paymentId,omitempty" db:"payment_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	StatusHistory   []StatusEntry   `json:"statusHistory"`
	CancelReason    *string         `json:"cancelReason,omitempty" db:"cancel_reason"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" db:"delivered_at"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty" db:"cancelled_at"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a snapshotted line: product name, SKU, image and unit price
// are denormalized at purchase time for historical accuracy.
type OrderItem struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   uuid.UUID       `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	ProductSKU  string          `json:"productSku" db:"product_sku"`
	Image       string          `json:"image" db:"image"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Size        string          `json:"size,omitempty" db:"size"`
	Color       string          `json:"color,omitempty" db:"color"`
}

// StatusEntry is one append-only status history record. Prior entries are
// never mutated.
type StatusEntry struct {
	ID        uuid.UUID   `json:"-" db:"id"`
	OrderID   uuid.UUID   `json:"-" db:"order_id"`
	Status    OrderStatus `json:"status" db:"status"`
	Note      string      `json:"note,omitempty" db:"note"`
	ChangedBy string      `json:"changedBy,omitempty" db:"changed_by"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// OrderRequest is the payload for creating an order.
type OrderRequest struct {
	UserID          string             `json:"userId"`
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress Address            `json:"shippingAddress"`
	BillingAddress  Address            `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	CouponCode      *string            `json:"couponCode,omitempty"`
	// FromCart clears the user's cart after the order is created.
	FromCart bool `json:"fromCart,omitempty"`
}

// OrderItemRequest is a single requested line.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	ChangedBy string      `json:"changedBy,omitempty"`
}

// CancelOrderRequest is the payload for cancelling an order.
type CancelOrderRequest struct {
	Reason    string `json:"reason"`
	ChangedBy string `json:"changedBy,omitempty"`
}

// MarkPaidRequest is the payload for confirming payment.
type MarkPaidRequest struct {
	PaymentID string `json:"paymentId"`
}
