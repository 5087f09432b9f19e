package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
)

const orderColumns = `id, order_number, user_id, shipping_address, billing_address,
	subtotal, tax, shipping_fee, discount, total, coupon_code, payment_method,
	payment_status, payment_id, status, cancel_reason, shipped_at, delivered_at,
	cancelled_at, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, order_number, user_id, shipping_address, billing_address,
			subtotal, tax, shipping_fee, discount, total, coupon_code, payment_method,
			payment_status, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.UserID,
		order.ShippingAddress, order.BillingAddress,
		order.Subtotal, order.Tax, order.ShippingFee, order.Discount, order.Total,
		order.CouponCode, order.PaymentMethod, order.PaymentStatus, order.Status,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created")

	return nil
}

// CreateOrderItems inserts the order's line snapshots within the provided
// transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_sku,
			image, unit_price, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.ProductSKU, item.Image, item.UnitPrice, item.Quantity, item.Size, item.Color)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// AppendStatusHistory appends one immutable status history entry.
func (r *orderRepository) AppendStatusHistory(ctx context.Context, tx pgx.Tx, entry *model.StatusEntry) error {
	query := `
		INSERT INTO order_status_history (id, order_id, status, note, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		entry.ID, entry.OrderID, entry.Status, entry.Note, entry.ChangedBy, entry.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", entry.OrderID.String()).
			Str("status", string(entry.Status)).
			Msg("failed to append status history")
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// UpdateStatus sets the order status and the matching status timestamp.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus, at time.Time, cancelReason *string) error {
	var query string
	args := []any{orderID, status, at}

	switch status {
	case model.OrderStatusShipped:
		query = `UPDATE orders SET status = $2, shipped_at = $3, updated_at = $3 WHERE id = $1`
	case model.OrderStatusDelivered:
		query = `UPDATE orders SET status = $2, delivered_at = $3, updated_at = $3 WHERE id = $1`
	case model.OrderStatusCancelled:
		query = `UPDATE orders SET status = $2, cancelled_at = $3, cancel_reason = $4, updated_at = $3 WHERE id = $1`
		args = append(args, cancelReason)
	default:
		query = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// UpdatePayment sets payment status and payment id.
func (r *orderRepository) UpdatePayment(ctx context.Context, orderID uuid.UUID, status model.PaymentStatus, paymentID *string) error {
	query := `
		UPDATE orders
		SET payment_status = $2, payment_id = COALESCE($3, payment_id), updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, orderID, status, paymentID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("payment_status", string(status)).
			Msg("failed to update payment")
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// GetByID retrieves an order with its items and status history.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.GetItems(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	history, err := r.getStatusHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	order.StatusHistory = history

	return order, nil
}

// GetByIDForUpdate retrieves the order row locked within the transaction.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, orderColumns)

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

// ListByUser retrieves a user's orders, newest first, without items.
func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, orderColumns)

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query user orders")
		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// GetItems retrieves the line snapshots for an order. Joins the provided
// transaction when non-nil.
func (r *orderRepository) GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_sku, image,
			unit_price, quantity, size, color
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, query, orderID)
	} else {
		rows, err = r.pool.Query(ctx, query, orderID)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductSKU, &item.Image, &item.UnitPrice, &item.Quantity,
			&item.Size, &item.Color,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// CountByUser counts a user's orders.
func (r *orderRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to count user orders")
		return 0, fmt.Errorf("failed to count user orders: %w", err)
	}
	return count, nil
}

// getStatusHistory loads the append-only history, oldest first.
func (r *orderRepository) getStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.StatusEntry, error) {
	query := `
		SELECT id, order_id, status, note, changed_by, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query status history")
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var entries []model.StatusEntry
	for rows.Next() {
		var e model.StatusEntry
		err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Note, &e.ChangedBy, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return entries, nil
}

// scanOrder scans one order row.
func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.ShippingAddress, &o.BillingAddress,
		&o.Subtotal, &o.Tax, &o.ShippingFee, &o.Discount, &o.Total,
		&o.CouponCode, &o.PaymentMethod, &o.PaymentStatus, &o.PaymentID,
		&o.Status, &o.CancelReason, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
