package payment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// secretKeyPattern matches Stripe secret keys so they can be redacted from
// logs and error messages.
var secretKeyPattern = regexp.MustCompile(`sk_(?:test|live)[0-9a-zA-Z_]+`)

// Scrub redacts provider secret keys from a message.
func Scrub(message string) string {
	return secretKeyPattern.ReplaceAllString(message, "sk_****")
}

// Configured reports whether the given secret key looks usable. Placeholder
// keys from sample .env files are treated as absent.
func Configured(secretKey string) bool {
	key := strings.TrimSpace(secretKey)
	return strings.HasPrefix(key, "sk_") && !strings.Contains(strings.ToLower(key), "placeholder")
}

// StripeProvider implements Provider on top of the Stripe API.
type StripeProvider struct {
	api      *client.API
	currency string
	timeout  time.Duration
}

// NewStripeProvider builds a StripeProvider with a per-call timeout.
// The currency is normalized to the lowercase ISO code Stripe expects.
func NewStripeProvider(secretKey, currency string, timeout time.Duration) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{
		api:      api,
		currency: strings.ToLower(currency),
		timeout:  timeout,
	}
}

// CreateDiscount creates a single-use amount-off coupon on the provider.
func (p *StripeProvider) CreateDiscount(ctx context.Context, amountCents int64, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CouponParams{
		AmountOff: stripe.Int64(amountCents),
		Currency:  stripe.String(p.currency),
		Duration:  stripe.String(string(stripe.CouponDurationOnce)),
		Name:      stripe.String(name),
	}
	params.Context = ctx

	coupon, err := p.api.Coupons.New(params)
	if err != nil {
		return "", classify("create discount", err)
	}
	return coupon.ID, nil
}

// DeleteDiscount removes a provider-side discount object.
func (p *StripeProvider) DeleteDiscount(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CouponParams{}
	params.Context = ctx

	if _, err := p.api.Coupons.Del(id, params); err != nil {
		return classify("delete discount", err)
	}
	return nil
}

// CreateCheckoutSession creates a Stripe Checkout session for the given items.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(cp.Items))
	for _, item := range cp.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
	}
	params.Context = ctx
	if cp.DiscountID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(cp.DiscountID)},
		}
	}
	for key, value := range cp.Metadata {
		params.AddMetadata(key, value)
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify("create checkout session", err)
	}
	return &Session{ID: session.ID, URL: session.URL}, nil
}

// classify translates a Stripe error into the package taxonomy, with the
// provider message scrubbed of secret keys.
func classify(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeAuthentication {
			return fmt.Errorf("%s: %w: %s", op, ErrAuth, Scrub(stripeErr.Msg))
		}
		return fmt.Errorf("%s: %w: %s", op, ErrUnavailable, Scrub(stripeErr.Msg))
	}
	return fmt.Errorf("%s: %w: %s", op, ErrUnavailable, Scrub(err.Error()))
}
