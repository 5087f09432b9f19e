package coupon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stitch-kart/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CalculateDiscount computes the discount a coupon yields against an order
// amount. Percentage discounts are capped at MaxDiscountAmount when set;
// fixed discounts are capped at the order amount; free-shipping coupons
// contribute zero here because the shipping waiver is applied by the order
// pipeline, not folded into the discount.
func CalculateDiscount(c *model.Coupon, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	switch c.DiscountType {
	case model.DiscountPercentage:
		amount := orderAmount.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount != nil && amount.GreaterThan(*c.MaxDiscountAmount) {
			amount = *c.MaxDiscountAmount
		}
		return floorAtZero(amount).Round(2), nil

	case model.DiscountFixed:
		amount := decimal.Min(c.DiscountValue, orderAmount)
		return floorAtZero(amount).Round(2), nil

	case model.DiscountFreeShipping:
		return decimal.Zero, nil

	default:
		return decimal.Zero, fmt.Errorf("unsupported discount type: %q", c.DiscountType)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
