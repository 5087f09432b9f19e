package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stitch-kart/internal/config"
	"stitch-kart/internal/coupon"
	"stitch-kart/internal/database"
	"stitch-kart/internal/repository"
)

// coupon-ingest loads gzipped JSON-line coupon definition files into the
// database, either from the local file system or from S3, and upserts
// them by code.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		source = flag.String("source", "", "path to a local coupon file, or S3 object key when -s3 is set")
		useS3  = flag.Bool("s3", false, "load the file from the configured S3 bucket")
	)
	flag.Parse()

	if *source == "" {
		return fmt.Errorf("-source is required")
	}

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

	var loader coupon.Loader
	if *useS3 {
		if !cfg.S3.Enabled {
			return fmt.Errorf("-s3 requires S3_ENABLED=true")
		}
		loader, err = coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 loader: %w", err)
		}
	} else {
		loader = coupon.NewFileLoader(logger)
	}

	defs, err := loader.Load(ctx, *source)
	if err != nil {
		return fmt.Errorf("failed to load coupon definitions: %w", err)
	}

	couponRepo := repository.NewCouponRepository(pool, logger)

	ingested := 0
	skipped := 0
	for _, def := range defs {
		c, err := def.ToCoupon()
		if err != nil {
			logger.Warn().Err(err).Str("code", def.Code).Msg("skipping invalid coupon definition")
			skipped++
			continue
		}
		if err := couponRepo.Upsert(ctx, c); err != nil {
			return fmt.Errorf("failed to upsert coupon %s: %w", c.Code, err)
		}
		ingested++
	}

	logger.Info().
		Str("source", *source).
		Int("ingested", ingested).
		Int("skipped", skipped).
		Msg("coupon ingest complete")

	return nil
}
