package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stitch-kart/internal/model"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// GetOrCreate returns the user's cart, creating an empty one if needed.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	// ON CONFLICT DO UPDATE makes the insert return the existing row, so
	// concurrent first accesses converge on the same cart.
	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		RETURNING id, user_id, coupon_code, discount, created_at, updated_at
	`

	now := time.Now()
	var cart model.Cart
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID, now).Scan(
		&cart.ID, &cart.UserID, &cart.CouponCode, &cart.Discount,
		&cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get or create cart")
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	items, err := r.getItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

// UpsertItem adds a line, merging by summing quantity when the
// (product, size, color) triple already exists in the cart. The uniqueness
// constraint guarantees no duplicate lines regardless of concurrent adds.
func (r *cartRepository) UpsertItem(ctx context.Context, item *model.CartItem) (*model.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, size, color, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cart_id, product_id, size, color)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, cart_id, product_id, quantity, unit_price, size, color, added_at
	`

	var out model.CartItem
	err := r.pool.QueryRow(ctx, query,
		item.ID, item.CartID, item.ProductID, item.Quantity,
		item.UnitPrice, item.Size, item.Color, item.AddedAt,
	).Scan(
		&out.ID, &out.CartID, &out.ProductID, &out.Quantity,
		&out.UnitPrice, &out.Size, &out.Color, &out.AddedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", item.CartID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to upsert cart item")
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	r.touch(ctx, item.CartID)

	return &out, nil
}

// UpdateItemQuantity sets the quantity of an existing line.
func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE cart_items
		SET quantity = $3
		WHERE id = $2 AND cart_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, cartID, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", cartID.String()).
			Str("item_id", itemID.String()).
			Msg("failed to update cart item")
		return false, fmt.Errorf("failed to update cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	r.touch(ctx, cartID)
	return true, nil
}

// RemoveItem deletes a line from the cart.
func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	query := `DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`

	tag, err := r.pool.Exec(ctx, query, cartID, itemID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", cartID.String()).
			Str("item_id", itemID.String()).
			Msg("failed to remove cart item")
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	r.touch(ctx, cartID)
	return true, nil
}

// SetCoupon stores the coupon code and its computed discount together.
func (r *cartRepository) SetCoupon(ctx context.Context, cartID uuid.UUID, code string, discount decimal.Decimal) error {
	query := `
		UPDATE carts
		SET coupon_code = $2, discount = $3, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, cartID, code, discount)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", cartID.String()).
			Str("code", code).
			Msg("failed to set cart coupon")
		return fmt.Errorf("failed to set cart coupon: %w", err)
	}

	return nil
}

// ClearCoupon removes the coupon association and its cached discount.
func (r *cartRepository) ClearCoupon(ctx context.Context, cartID uuid.UUID) error {
	query := `
		UPDATE carts
		SET coupon_code = NULL, discount = 0, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart coupon")
		return fmt.Errorf("failed to clear cart coupon: %w", err)
	}

	return nil
}

// Clear removes all lines and the coupon association. Joins the provided
// transaction when non-nil.
func (r *cartRepository) Clear(ctx context.Context, tx pgx.Tx, userID string) error {
	itemsQuery := `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)
	`
	couponQuery := `
		UPDATE carts
		SET coupon_code = NULL, discount = 0, updated_at = now()
		WHERE user_id = $1
	`

	exec := r.execer(tx)

	if _, err := exec.Exec(ctx, itemsQuery, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart items")
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	if _, err := exec.Exec(ctx, couponQuery, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart coupon")
		return fmt.Errorf("failed to clear cart coupon: %w", err)
	}

	return nil
}

// execer abstracts pool vs transaction execution for Clear.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *cartRepository) execer(tx pgx.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.pool
}

// getItems loads a cart's lines ordered by insertion time.
func (r *cartRepository) getItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, unit_price, size, color, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, id
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.Size, &item.Color, &item.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// touch bumps the cart's updated_at; failures are logged and ignored since
// the timestamp is advisory.
func (r *cartRepository) touch(ctx context.Context, cartID uuid.UUID) {
	if _, err := r.pool.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		r.logger.Warn().Err(err).Str("cart_id", cartID.String()).Msg("failed to touch cart")
	}
}
