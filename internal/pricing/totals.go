package pricing

import (
	"errors"
	"time"

	"github.com/fairyhunter13/food-order-platform/internal/model"
)

var (
	// ErrEmptyCart is returned when the cart has no chargeable line items or
	// contains a line with a non-positive price or quantity.
	ErrEmptyCart = errors.New("cart has no chargeable items")

	// ErrTotalTooLow is returned when the order total is not positive after
	// discounts; a zero-value paid order is nonsensical.
	ErrTotalTooLow = errors.New("order total must be positive after discounts")
)

// Totals is the result of an order total computation, held entirely in
// integer minor currency units.
type Totals struct {
	SubtotalCents int64
	DiscountCents int64
	DeliveryCents int64
	TotalCents    int64
}

// Subtotal returns the pre-discount, pre-delivery amount in decimal units.
func (t Totals) Subtotal() float64 { return FromCents(t.SubtotalCents) }

// Discount returns the discount amount in decimal units.
func (t Totals) Discount() float64 { return FromCents(t.DiscountCents) }

// Delivery returns the delivery fee in decimal units.
func (t Totals) Delivery() float64 { return FromCents(t.DeliveryCents) }

// Total returns the final chargeable amount in decimal units.
func (t Totals) Total() float64 { return FromCents(t.TotalCents) }

// ComputeTotals converts cart line items into the final chargeable amount.
//
// Each line's price is rounded to the nearest cent before multiplication, so
// the sum is exact regardless of how the decimal prices were produced. When a
// coupon is supplied, eligibility is re-checked against the decimal subtotal
// and any failure aborts the computation. The discount is clamped so the
// post-discount total can never go negative, whatever float artifacts the
// discount function produced. The delivery fee only applies to non-empty
// carts.
func ComputeTotals(items []model.OrderItem, coupon *model.Coupon, userUsage int, userID string, deliveryFeeCents int64, now time.Time) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, ErrEmptyCart
	}

	var subtotalCents int64
	for _, item := range items {
		if item.Quantity <= 0 || item.Price <= 0 {
			return Totals{}, ErrEmptyCart
		}
		subtotalCents += Cents(item.Price) * int64(item.Quantity)
	}
	if subtotalCents <= 0 {
		return Totals{}, ErrEmptyCart
	}
	subtotal := FromCents(subtotalCents)

	var discountCents int64
	if coupon != nil {
		if err := ValidateEligibility(coupon, subtotal, userUsage, userID, now); err != nil {
			return Totals{}, err
		}
		discountCents = Cents(ComputeDiscount(coupon, subtotal))
		if discountCents > subtotalCents {
			discountCents = subtotalCents
		}
	}

	deliveryCents := deliveryFeeCents
	if subtotalCents == 0 {
		deliveryCents = 0
	}

	totalCents := subtotalCents - discountCents
	if totalCents < 0 {
		totalCents = 0
	}
	totalCents += deliveryCents

	if totalCents <= 0 {
		return Totals{}, ErrTotalTooLow
	}

	return Totals{
		SubtotalCents: subtotalCents,
		DiscountCents: discountCents,
		DeliveryCents: deliveryCents,
		TotalCents:    totalCents,
	}, nil
}
