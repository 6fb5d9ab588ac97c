package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/food-order-platform/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Cents converts a decimal currency amount to integer minor units,
// rounding to the nearest cent.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer minor units back to a decimal amount.
// This is the last step of any monetary computation, never an intermediate one.
func FromCents(cents int64) float64 {
	return decimal.NewFromInt(cents).Div(hundred).InexactFloat64()
}

// ComputeDiscount computes the discount a coupon grants on the given subtotal.
// Percentage coupons take subtotal * value / 100, flat coupons take the value
// directly. The result is clamped to the coupon's max discount cap when one is
// set, and always to [0, subtotal]: a discount never exceeds the order's own
// subtotal and is never negative.
//
// Deterministic for identical inputs. Eligibility is not checked here.
func ComputeDiscount(coupon *model.Coupon, subtotal float64) float64 {
	if coupon == nil || subtotal <= 0 {
		return 0
	}

	sub := decimal.NewFromFloat(subtotal)
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountFlat:
		discount = decimal.NewFromFloat(coupon.DiscountValue)
	default:
		discount = sub.Mul(decimal.NewFromFloat(coupon.DiscountValue)).Div(hundred)
	}

	if coupon.MaxDiscountValue != nil {
		discount = decimal.Min(discount, decimal.NewFromFloat(*coupon.MaxDiscountValue))
	}

	return decimal.Max(decimal.Zero, decimal.Min(discount, sub)).InexactFloat64()
}
