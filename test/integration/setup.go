package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"stitch-kart/internal/config"
	"stitch-kart/internal/coupon"
	"stitch-kart/internal/database"
	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
	"stitch-kart/internal/service"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool with
// the decimal codec registered, and applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Env bundles the repositories and services wired against a test database.
type Env struct {
	Pool *pgxpool.Pool

	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository
	CouponRepo  repository.CouponRepository
	ReviewRepo  repository.ReviewRepository

	Products service.ProductService
	Carts    service.CartService
	Orders   service.OrderService
	Coupons  service.CouponService
	Reviews  service.ReviewService
}

// NewEnv wires repositories and services the same way the API server does.
func NewEnv(t *testing.T, db *TestDB) *Env {
	t.Helper()

	logger := zerolog.Nop()
	pricing := config.PricingConfig{
		TaxRate:               decimal.NewFromFloat(0.18),
		ShippingFee:           decimal.NewFromInt(50),
		FreeShippingThreshold: decimal.NewFromInt(500),
	}

	productRepo := repository.NewProductRepository(db.Pool, logger)
	cartRepo := repository.NewCartRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	couponRepo := repository.NewCouponRepository(db.Pool, logger)
	reviewRepo := repository.NewReviewRepository(db.Pool, logger)

	store := service.NewCouponStore(couponRepo, orderRepo)
	validator := coupon.NewValidator(store, logger)

	return &Env{
		Pool:        db.Pool,
		ProductRepo: productRepo,
		CartRepo:    cartRepo,
		OrderRepo:   orderRepo,
		CouponRepo:  couponRepo,
		ReviewRepo:  reviewRepo,
		Products:    service.NewProductService(productRepo, logger),
		Carts:       service.NewCartService(cartRepo, productRepo, validator, logger),
		Orders:      service.NewOrderService(orderRepo, productRepo, cartRepo, couponRepo, validator, pricing, logger),
		Coupons:     service.NewCouponService(validator, logger),
		Reviews:     service.NewReviewService(reviewRepo, productRepo, logger),
	}
}

// SeedProduct inserts a published product with the given price and stock.
func (e *Env) SeedProduct(t *testing.T, name string, price int64, stock int) *model.Product {
	t.Helper()

	now := time.Now()
	p := &model.Product{
		ID:                uuid.New(),
		SKU:               "SKU-" + name,
		Slug:              "slug-" + name,
		Name:              name,
		Category:          "t-shirts",
		Price:             decimal.NewFromInt(price),
		Stock:             stock,
		LowStockThreshold: 2,
		IsPublished:       true,
		AverageRating:     decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := e.ProductRepo.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

// SeedCoupon inserts a coupon valid around the current time.
func (e *Env) SeedCoupon(t *testing.T, c *model.Coupon) *model.Coupon {
	t.Helper()

	now := time.Now()
	if c.StartsAt.IsZero() {
		c.StartsAt = now.Add(-time.Hour)
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = now.Add(24 * time.Hour)
	}
	if c.MaxUsagePerUser == 0 {
		c.MaxUsagePerUser = 1
	}
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := e.CouponRepo.Upsert(context.Background(), c); err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}

	seeded, err := e.CouponRepo.GetByCode(context.Background(), c.Code)
	if err != nil || seeded == nil {
		t.Fatalf("failed to reload seeded coupon: %v", err)
	}
	return seeded
}

// CurrentStock reads a product's stock and total sales directly.
func (e *Env) CurrentStock(t *testing.T, productID uuid.UUID) (stock, totalSales int) {
	t.Helper()

	err := e.Pool.QueryRow(context.Background(),
		`SELECT stock, total_sales FROM products WHERE id = $1`, productID).
		Scan(&stock, &totalSales)
	if err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock, totalSales
}
