package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents an apparel product in the catalogue. Stock is the
// single source of inventory truth; it is debited at order creation and
// credited back on cancellation.
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	SKU               string          `json:"sku" db:"sku"`
	Slug              string          `json:"slug" db:"slug"`
	Name              string          `json:"name" db:"name"`
	Description       string          `json:"description" db:"description"`
	Image             string          `json:"image" db:"image"`
	Category          string          `json:"category" db:"category"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Stock             int             `json:"stock" db:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold" db:"low_stock_threshold"`
	TotalSales        int             `json:"totalSales" db:"total_sales"`
	IsPublished       bool            `json:"isPublished" db:"is_published"`
	AverageRating     decimal.Decimal `json:"averageRating" db:"average_rating"`
	ReviewCount       int             `json:"reviewCount" db:"review_count"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsLowStock reports whether the product is at or below its low stock threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}
