package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stitch-kart/internal/model"
)

// Definition is one coupon record in an ingest file: gzipped,
// one JSON object per line.
type Definition struct {
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	DiscountType      string           `json:"discountType"`
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	MinPurchaseAmount decimal.Decimal  `json:"minPurchaseAmount"`
	MinItems          int              `json:"minItems,omitempty"`
	StartsAt          time.Time        `json:"startsAt"`
	ExpiresAt         time.Time        `json:"expiresAt"`
	IsActive          bool             `json:"isActive"`
	MaxUsage          *int             `json:"maxUsage,omitempty"`
	MaxUsagePerUser   int              `json:"maxUsagePerUser,omitempty"`
	FirstTimeUserOnly bool             `json:"firstTimeUserOnly,omitempty"`
	ApplicableUsers   []string         `json:"applicableUsers,omitempty"`
	ExcludedUsers     []string         `json:"excludedUsers,omitempty"`
}

// ToCoupon converts a definition into a coupon record, validating the
// fields the schema cannot default.
func (d *Definition) ToCoupon() (*model.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(d.Code))
	if code == "" {
		return nil, fmt.Errorf("coupon code is required")
	}

	discountType := model.DiscountType(d.DiscountType)
	if !model.ValidDiscountType(discountType) {
		return nil, fmt.Errorf("invalid discount type %q for coupon %s", d.DiscountType, code)
	}

	if discountType == model.DiscountPercentage && d.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("percentage discount exceeds 100 for coupon %s", code)
	}

	if !d.StartsAt.Before(d.ExpiresAt) {
		return nil, fmt.Errorf("coupon %s start date must precede end date", code)
	}

	maxPerUser := d.MaxUsagePerUser
	if maxPerUser <= 0 {
		maxPerUser = 1
	}

	applicable := d.ApplicableUsers
	if applicable == nil {
		applicable = []string{}
	}
	excluded := d.ExcludedUsers
	if excluded == nil {
		excluded = []string{}
	}

	now := time.Now()
	return &model.Coupon{
		ID:                uuid.New(),
		Code:              code,
		Description:       d.Description,
		DiscountType:      discountType,
		DiscountValue:     d.DiscountValue,
		MaxDiscountAmount: d.MaxDiscountAmount,
		MinPurchaseAmount: d.MinPurchaseAmount,
		MinItems:          d.MinItems,
		StartsAt:          d.StartsAt,
		ExpiresAt:         d.ExpiresAt,
		IsActive:          d.IsActive,
		MaxUsage:          d.MaxUsage,
		MaxUsagePerUser:   maxPerUser,
		FirstTimeUserOnly: d.FirstTimeUserOnly,
		ApplicableUsers:   applicable,
		ExcludedUsers:     excluded,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Loader reads gzipped coupon definition files.
type Loader interface {
	// Load reads one gzipped JSON-line coupon file and returns its definitions.
	Load(ctx context.Context, path string) ([]Definition, error)
}

// fileLoader implements Loader for the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon definition loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a gzipped coupon definition file, one JSON object per line.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]Definition, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon definitions")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon file")
		return nil, fmt.Errorf("failed to open coupon file %s: %w", filePath, err)
	}
	defer file.Close()

	defs, err := decodeDefinitions(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read coupon file")
		return nil, fmt.Errorf("failed to read coupon file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("count", len(defs)).
		Msg("coupon definitions loaded")

	return defs, nil
}

// decodeDefinitions reads gzipped JSON lines from r, skipping blank lines.
func decodeDefinitions(ctx context.Context, r io.Reader) ([]Definition, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var defs []Definition
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var def Definition
		if err := json.Unmarshal([]byte(line), &def); err != nil {
			return nil, fmt.Errorf("invalid coupon definition on line %d: %w", lineNo, err)
		}
		defs = append(defs, def)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coupon definitions: %w", err)
	}

	return defs, nil
}
