package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
)

const productColumns = `id, sku, slug, name, description, image, category, price,
	stock, low_stock_threshold, total_sales, is_published, average_rating,
	review_count, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Slug, &p.Name, &p.Description, &p.Image, &p.Category,
		&p.Price, &p.Stock, &p.LowStockThreshold, &p.TotalSales, &p.IsPublished,
		&p.AverageRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves published products with pagination support.
func (r *productRepository) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE is_published
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, productColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetBySlug retrieves a single product by its slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("slug", slug).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// LowStock retrieves published products at or below their low stock threshold.
func (r *productRepository) LowStock(ctx context.Context) ([]model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE is_published AND stock <= low_stock_threshold
		ORDER BY stock
	`, productColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query low stock products")
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Create inserts a product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, sku, slug, name, description, image, category,
			price, stock, low_stock_threshold, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.SKU, p.Slug, p.Name, p.Description, p.Image, p.Category,
		p.Price, p.Stock, p.LowStockThreshold, p.IsPublished, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("sku", p.SKU).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// DebitStock atomically decrements stock and increments total_sales,
// conditional on sufficient stock. The condition and the decrement happen
// in the same statement so two concurrent orders cannot both take the last
// unit.
func (r *productRepository) DebitStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET stock = stock - $2,
		    total_sales = total_sales + $2,
		    updated_at = now()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Int("quantity", quantity).
			Msg("failed to debit stock")
		return false, fmt.Errorf("failed to debit stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("product_id", productID.String()).
			Int("quantity", quantity).
			Msg("stock debit rejected: insufficient stock at commit time")
		return false, nil
	}

	return true, nil
}

// RestoreStock reverses a debit. total_sales is floored at zero so the
// counter can never go negative.
func (r *productRepository) RestoreStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2,
		    total_sales = GREATEST(total_sales - $2, 0),
		    updated_at = now()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Int("quantity", quantity).
			Msg("failed to restore stock")
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	return nil
}

// collectProducts drains rows into a product slice.
func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
