// Package pricing implements the coupon eligibility and discount engine and
// the integer-cents order total computation. Everything here is pure: no
// store access, no clock reads, no side effects.
package pricing

import (
	"time"

	"github.com/fairyhunter13/food-order-platform/internal/model"
)

// Reason identifies why a coupon cannot be applied.
type Reason string

const (
	ReasonNotFound            Reason = "coupon_not_found"
	ReasonInactive            Reason = "coupon_inactive"
	ReasonNotYetLive          Reason = "coupon_not_yet_live"
	ReasonExpired             Reason = "coupon_expired"
	ReasonEmptyCart           Reason = "empty_cart"
	ReasonBelowMinimum        Reason = "below_minimum_order"
	ReasonGlobalLimitReached  Reason = "usage_limit_reached"
	ReasonPerUserLimitReached Reason = "per_user_limit_reached"
)

// Message returns the customer-facing text for the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNotFound:
		return "Coupon not found"
	case ReasonInactive:
		return "This coupon is currently inactive"
	case ReasonNotYetLive:
		return "This coupon isn't live yet"
	case ReasonExpired:
		return "This coupon has expired"
	case ReasonEmptyCart:
		return "Add dishes to your cart before applying a coupon"
	case ReasonBelowMinimum:
		return "Your order is below the minimum required for this coupon"
	case ReasonGlobalLimitReached:
		return "This coupon has reached its maximum redemptions"
	case ReasonPerUserLimitReached:
		return "You've already used this coupon the maximum number of times"
	default:
		return "Coupon cannot be applied"
	}
}

// IneligibilityError reports a failed eligibility check. It is an expected,
// recoverable error: callers surface the reason verbatim and never create
// an order from it.
type IneligibilityError struct {
	Reason Reason
}

func (e *IneligibilityError) Error() string {
	return e.Reason.Message()
}

// Ineligible builds an IneligibilityError for the given reason.
func Ineligible(reason Reason) *IneligibilityError {
	return &IneligibilityError{Reason: reason}
}

// ValidateEligibility decides whether a coupon may be applied to the given
// subtotal/user pair at the given moment. userUsage is the user's recorded
// redemption count for this coupon, read from the store by the caller.
//
// The check order is fixed: existence, active flag, time window, cart state,
// spend floor, global cap, per-user cap. The first failing check wins and
// later checks are not evaluated.
func ValidateEligibility(coupon *model.Coupon, subtotal float64, userUsage int, userID string, now time.Time) error {
	if coupon == nil {
		return Ineligible(ReasonNotFound)
	}
	if !coupon.Active {
		return Ineligible(ReasonInactive)
	}
	if coupon.StartDate != nil && now.Before(*coupon.StartDate) {
		return Ineligible(ReasonNotYetLive)
	}
	if coupon.EndDate != nil && now.After(*coupon.EndDate) {
		return Ineligible(ReasonExpired)
	}
	if subtotal <= 0 {
		return Ineligible(ReasonEmptyCart)
	}
	if coupon.MinOrderAmount > 0 && subtotal < coupon.MinOrderAmount {
		return Ineligible(ReasonBelowMinimum)
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return Ineligible(ReasonGlobalLimitReached)
	}
	if coupon.PerUserLimit > 0 && userID != "" && userUsage >= coupon.PerUserLimit {
		return Ineligible(ReasonPerUserLimitReached)
	}
	return nil
}
