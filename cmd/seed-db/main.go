package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stitch-kart/internal/config"
	"stitch-kart/internal/database"
	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
)

// productJSON is one product record in a seed file.
type productJSON struct {
	SKU               string          `json:"sku"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Image             string          `json:"image"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	IsPublished       bool            `json:"isPublished"`
}

// seed-db loads a products JSON file into the database.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	productsFile := flag.String("products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	data, err := os.ReadFile(*productsFile)
	if err != nil {
		return fmt.Errorf("failed to read products file: %w", err)
	}

	var records []productJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse products file: %w", err)
	}

	productRepo := repository.NewProductRepository(pool, logger)

	now := time.Now()
	for _, rec := range records {
		threshold := rec.LowStockThreshold
		if threshold <= 0 {
			threshold = 5
		}

		p := &model.Product{
			ID:                uuid.New(),
			SKU:               rec.SKU,
			Slug:              rec.Slug,
			Name:              rec.Name,
			Description:       rec.Description,
			Image:             rec.Image,
			Category:          rec.Category,
			Price:             rec.Price,
			Stock:             rec.Stock,
			LowStockThreshold: threshold,
			IsPublished:       rec.IsPublished,
			AverageRating:     decimal.Zero,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := productRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", rec.SKU, err)
		}
	}

	logger.Info().
		Str("file", *productsFile).
		Int("count", len(records)).
		Msg("products seeded")

	return nil
}
