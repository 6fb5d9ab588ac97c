package service

import "errors"

var (
	// ErrCouponExists is returned when attempting to create a coupon whose code already exists
	ErrCouponExists = errors.New("coupon code already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrOrderNotFound is returned when an order cannot be found
	ErrOrderNotFound = errors.New("order not found")

	// ErrForbidden is returned when a non-admin attempts an admin-only mutation.
	// Kept distinct from the not-found errors; the HTTP layer decides what to expose.
	ErrForbidden = errors.New("admin privilege required")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCouponExhausted is returned when the conditional usage increment finds
	// the coupon's global limit already reached
	ErrCouponExhausted = errors.New("coupon usage limit reached")

	// ErrCouponUserExhausted is returned when the conditional usage increment
	// finds the user's per-user limit already reached
	ErrCouponUserExhausted = errors.New("coupon per-user limit reached")

	// ErrPaymentsUnavailable is returned when online payments cannot be taken
	// at all (provider not configured or credentials rejected); callers should
	// offer cash on delivery instead
	ErrPaymentsUnavailable = errors.New("online payments unavailable")

	// ErrPaymentFailed is returned on a transient provider failure during
	// checkout; safe to retry or to switch to cash on delivery
	ErrPaymentFailed = errors.New("payment session could not be created")
)
