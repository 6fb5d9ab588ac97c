package model

import "time"

// DiscountType enumerates the supported coupon discount modes.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the cart subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFlat takes a fixed amount off the cart subtotal.
	DiscountFlat DiscountType = "flat"
)

// Coupon represents a coupon in the system.
// Usage counters live in the database and are only mutated through atomic
// store operations; the struct is a read snapshot, never a cache.
type Coupon struct {
	Code             string       `json:"code"`
	Label            string       `json:"label"`
	Description      string       `json:"description"`
	DiscountType     DiscountType `json:"discountType"`
	DiscountValue    float64      `json:"discountValue"`
	MinOrderAmount   float64      `json:"minOrderAmount"`
	MaxDiscountValue *float64     `json:"maxDiscountValue"`
	StartDate        *time.Time   `json:"startDate"`
	EndDate          *time.Time   `json:"endDate"`
	Active           bool         `json:"active"`
	UsageLimit       *int         `json:"usageLimit"`
	UsageCount       int          `json:"usageCount"`
	PerUserLimit     int          `json:"perUserLimit"`
	CreatedAt        time.Time    `json:"-"`
	UpdatedAt        time.Time    `json:"-"`
}

// CouponSnapshot is the frozen copy of a coupon's terms stored on an order
// at checkout time. Later edits to the live coupon never affect it.
type CouponSnapshot struct {
	Code             string       `json:"code"`
	Label            string       `json:"label"`
	DiscountType     DiscountType `json:"discountType"`
	DiscountValue    float64      `json:"discountValue"`
	MaxDiscountValue *float64     `json:"maxDiscountValue"`
	MinOrderAmount   float64      `json:"minOrderAmount"`
}

// Snapshot freezes the coupon's pricing terms for storage on an order.
func (c *Coupon) Snapshot() *CouponSnapshot {
	if c == nil {
		return nil
	}
	return &CouponSnapshot{
		Code:             c.Code,
		Label:            c.Label,
		DiscountType:     c.DiscountType,
		DiscountValue:    c.DiscountValue,
		MaxDiscountValue: c.MaxDiscountValue,
		MinOrderAmount:   c.MinOrderAmount,
	}
}

// CreateCouponRequest is the DTO for creating a coupon.
type CreateCouponRequest struct {
	Code             string     `json:"code" validate:"required,notblank,max=64"`
	Label            string     `json:"label" validate:"required,notblank,max=255"`
	Description      string     `json:"description" validate:"max=1024"`
	DiscountType     string     `json:"discountType" validate:"omitempty,oneof=percentage flat"`
	DiscountValue    *float64   `json:"discountValue" validate:"required,gte=0"`
	MinOrderAmount   float64    `json:"minOrderAmount" validate:"gte=0"`
	MaxDiscountValue *float64   `json:"maxDiscountValue" validate:"omitempty,gte=0"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	Active           *bool      `json:"active"`
	UsageLimit       *int       `json:"usageLimit" validate:"omitempty,gte=1"`
	PerUserLimit     *int       `json:"perUserLimit" validate:"omitempty,gte=1"`
}

// UpdateCouponRequest is the DTO for partially updating a coupon.
// Nil fields are left untouched; the code itself is immutable.
type UpdateCouponRequest struct {
	Label            *string    `json:"label" validate:"omitempty,notblank,max=255"`
	Description      *string    `json:"description" validate:"omitempty,max=1024"`
	DiscountType     *string    `json:"discountType" validate:"omitempty,oneof=percentage flat"`
	DiscountValue    *float64   `json:"discountValue" validate:"omitempty,gte=0"`
	MinOrderAmount   *float64   `json:"minOrderAmount" validate:"omitempty,gte=0"`
	MaxDiscountValue *float64   `json:"maxDiscountValue" validate:"omitempty,gte=0"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	Active           *bool      `json:"active"`
	UsageLimit       *int       `json:"usageLimit" validate:"omitempty,gte=1"`
	PerUserLimit     *int       `json:"perUserLimit" validate:"omitempty,gte=1"`
}

// ValidateCouponRequest is the DTO for POST /api/coupons/validate.
type ValidateCouponRequest struct {
	Code     string   `json:"code" validate:"required,notblank,max=64"`
	Subtotal *float64 `json:"subtotal" validate:"required"`
}

// CouponQuote is the response for a successful coupon validation.
type CouponQuote struct {
	DiscountAmount float64 `json:"discountAmount"`
	Coupon         *Coupon `json:"coupon"`
}

// ActiveCoupon is the public listing DTO for currently redeemable coupons.
type ActiveCoupon struct {
	Code                 string     `json:"code"`
	Label                string     `json:"label"`
	Description          string     `json:"description"`
	DiscountType         DiscountType `json:"discountType"`
	DiscountValue        float64    `json:"discountValue"`
	MinOrderAmount       float64    `json:"minOrderAmount"`
	MaxDiscountValue     *float64   `json:"maxDiscountValue"`
	EndDate              *time.Time `json:"endDate"`
	RemainingRedemptions *int       `json:"remainingRedemptions"`
}
