// Package payment wraps the external payment provider behind a small
// interface. The provider owns payment processing entirely; this package only
// creates and deletes the per-checkout discount objects and sessions the
// order flow needs, and translates provider failures into a stable taxonomy.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrAuth indicates invalid or misconfigured provider credentials.
	// Callers must show a generic message and steer users to cash on delivery;
	// the underlying detail is logged server-side with secrets redacted.
	ErrAuth = errors.New("payment provider authentication failed")

	// ErrUnavailable indicates a transient provider failure (network, 5xx).
	// Safe to retry or to fall back to cash on delivery.
	ErrUnavailable = errors.New("payment provider unavailable")
)

// CheckoutItem is one billable line of a checkout session.
type CheckoutItem struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

// CheckoutParams describes a payment session to be created provider-side.
type CheckoutParams struct {
	Items      []CheckoutItem
	DiscountID string // provider discount object to attach, empty for none
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the provider-side payment session the customer is redirected to.
type Session struct {
	ID  string
	URL string
}

// Provider is the payment-provider contract consumed by the order flow.
// All three calls are black boxes with their own error taxonomy; failures
// are classified as ErrAuth or ErrUnavailable.
type Provider interface {
	// CreateDiscount creates a single-use amount-off discount object scoped
	// to one checkout and returns its provider-side id.
	CreateDiscount(ctx context.Context, amountCents int64, name string) (string, error)

	// DeleteDiscount removes a previously created discount object.
	DeleteDiscount(ctx context.Context, id string) error

	// CreateCheckoutSession creates a payment session referencing the given
	// line items and optional discount object.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
}
