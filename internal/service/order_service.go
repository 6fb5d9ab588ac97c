package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/food-order-platform/internal/config"
	"github.com/fairyhunter13/food-order-platform/internal/model"
	"github.com/fairyhunter13/food-order-platform/internal/payment"
	"github.com/fairyhunter13/food-order-platform/internal/pricing"
	"github.com/fairyhunter13/food-order-platform/pkg/database"
)

// OrderRepositoryInterface defines the interface for order data access.
type OrderRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	MarkPaid(ctx context.Context, tx database.TxQuerier, id string) error
	UpdateStatus(ctx context.Context, id, status string) (bool, error)
	Delete(ctx context.Context, tx database.TxQuerier, id string) error
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
}

// CartRepositoryInterface defines the interface for cart data access.
type CartRepositoryInterface interface {
	Get(ctx context.Context, userID string) (map[string]int, error)
	AddItem(ctx context.Context, userID, itemID string) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, tx database.TxQuerier, userID string) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderService coordinates order placement, payment confirmation and removal.
//
// Usage-limit enforcement: COD placements redeem the coupon with a conditional
// atomic increment inside the order transaction, so a concurrent redemption
// that exhausts the limit surfaces as a late-discovered ineligibility and the
// order is never created. At online payment confirmation the money has
// already been captured, so the increment is unconditional there; an overshoot
// past the limit is logged, never refused.
type OrderService struct {
	pool     TxBeginner
	orders   OrderRepositoryInterface
	coupons  CouponRepositoryInterface
	carts    CartRepositoryInterface
	provider payment.Provider // nil when online payments are not configured

	currency         string
	deliveryFeeCents int64
	frontendURL      string
	now              func() time.Time
}

// NewOrderService creates a new OrderService with the given pool, repositories
// and payment provider. The provider may be nil; online placement then fails
// with ErrPaymentsUnavailable while cash on delivery keeps working.
func NewOrderService(pool *pgxpool.Pool, orders OrderRepositoryInterface, coupons CouponRepositoryInterface,
	carts CartRepositoryInterface, provider payment.Provider, cfg config.OrderConfig) *OrderService {
	return newOrderService(pool, orders, coupons, carts, provider, cfg)
}

// NewOrderServiceWithTxBeginner creates an OrderService with a custom TxBeginner.
// Primarily used for testing.
func NewOrderServiceWithTxBeginner(pool TxBeginner, orders OrderRepositoryInterface, coupons CouponRepositoryInterface,
	carts CartRepositoryInterface, provider payment.Provider, cfg config.OrderConfig) *OrderService {
	return newOrderService(pool, orders, coupons, carts, provider, cfg)
}

func newOrderService(pool TxBeginner, orders OrderRepositoryInterface, coupons CouponRepositoryInterface,
	carts CartRepositoryInterface, provider payment.Provider, cfg config.OrderConfig) *OrderService {
	return &OrderService{
		pool:             pool,
		orders:           orders,
		coupons:          coupons,
		carts:            carts,
		provider:         provider,
		currency:         strings.ToUpper(cfg.Currency),
		deliveryFeeCents: pricing.Cents(cfg.DeliveryFee),
		frontendURL:      strings.TrimRight(cfg.FrontendURL, "/"),
		now:              time.Now,
	}
}

// SetClock overrides the service clock. Primarily used for testing.
func (s *OrderService) SetClock(now func() time.Time) { s.now = now }

var codAliases = map[string]bool{
	"cod":              true,
	"cash":             true,
	"cash-on-delivery": true,
	"cash_on_delivery": true,
}

func normalizePaymentMethod(raw string) string {
	if codAliases[strings.ToLower(strings.TrimSpace(raw))] {
		return model.PaymentMethodCOD
	}
	return model.PaymentMethodOnline
}

// PlaceOrder validates the cart and optional coupon, computes totals in
// integer cents, persists the order and clears the cart. Online orders get a
// provider checkout session; COD orders are persisted immediately and redeem
// the coupon inside the same transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req *model.PlaceOrderRequest) (*model.PlaceOrderResult, error) {
	if req == nil || userID == "" {
		return nil, ErrInvalidRequest
	}
	if len(req.Address) == 0 {
		return nil, ErrInvalidRequest
	}

	method := normalizePaymentMethod(req.PaymentMethod)

	var coupon *model.Coupon
	userUsage := 0
	code := NormalizeCode(req.CouponCode)
	if code != "" {
		var err error
		coupon, err = s.coupons.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		if coupon == nil {
			return nil, pricing.Ineligible(pricing.ReasonNotFound)
		}
		userUsage, err = s.coupons.GetUserUsage(ctx, code, userID)
		if err != nil {
			return nil, fmt.Errorf("get user usage: %w", err)
		}
	}

	totals, err := pricing.ComputeTotals(req.Items, coupon, userUsage, userID, s.deliveryFeeCents, s.now())
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Items:         req.Items,
		Amount:        totals.Total(),
		Subtotal:      totals.Subtotal(),
		DeliveryFee:   totals.Delivery(),
		Discount:      totals.Discount(),
		Currency:      s.currency,
		Address:       req.Address,
		Instructions:  strings.TrimSpace(req.Instructions),
		Status:        model.StatusProcessing,
		Date:          s.now(),
		PaymentMethod: method,
	}
	if coupon != nil {
		order.CouponCode = &coupon.Code
		order.CouponSnapshot = coupon.Snapshot()
	}

	if method == model.PaymentMethodCOD {
		return s.placeCOD(ctx, order, coupon)
	}
	return s.placeOnline(ctx, order, coupon, totals)
}

// placeCOD persists a cash-on-delivery order. The order insert, the
// conditional coupon redemption and the cart clear commit or roll back
// together.
func (s *OrderService) placeCOD(ctx context.Context, order *model.Order, coupon *model.Coupon) (*model.PlaceOrderResult, error) {
	order.Status = model.StatusAwaitingCash

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.orders.Insert(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if coupon != nil {
		if err := s.coupons.Redeem(ctx, tx, coupon.Code, order.UserID, coupon.PerUserLimit); err != nil {
			if reason, late := lateIneligibility(err); late {
				return nil, pricing.Ineligible(reason)
			}
			return nil, fmt.Errorf("redeem coupon: %w", err)
		}
	}

	if err := s.carts.Clear(ctx, tx, order.UserID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.PlaceOrderResult{
		OrderID:       order.ID,
		PaymentMethod: model.PaymentMethodCOD,
	}, nil
}

// placeOnline creates the provider-side discount object and checkout session,
// then persists the unconfirmed order. Coupon counters move only at payment
// confirmation. On any failure after the discount object exists, the object is
// deleted again before the error is surfaced.
func (s *OrderService) placeOnline(ctx context.Context, order *model.Order, coupon *model.Coupon, totals pricing.Totals) (*model.PlaceOrderResult, error) {
	if s.provider == nil {
		return nil, ErrPaymentsUnavailable
	}

	discountID := ""
	if totals.DiscountCents > 0 {
		name := "Order discount"
		if coupon != nil {
			name = coupon.Code + " discount"
		}
		var err error
		discountID, err = s.provider.CreateDiscount(ctx, totals.DiscountCents, name)
		if err != nil {
			return nil, s.classifyProviderError("create discount object", err)
		}
		order.StripeCouponID = &discountID
	}

	items := make([]payment.CheckoutItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		items = append(items, payment.CheckoutItem{
			Name:            item.Name,
			UnitAmountCents: pricing.Cents(item.Price),
			Quantity:        int64(item.Quantity),
		})
	}
	if totals.DeliveryCents > 0 {
		items = append(items, payment.CheckoutItem{
			Name:            "Delivery Charges",
			UnitAmountCents: totals.DeliveryCents,
			Quantity:        1,
		})
	}

	metadata := map[string]string{}
	if order.Instructions != "" {
		metadata["instructions"] = order.Instructions
	}
	if coupon != nil {
		metadata["coupon_code"] = coupon.Code
		metadata["coupon_discount"] = fmt.Sprintf("%.2f", totals.Discount())
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		Items:      items,
		DiscountID: discountID,
		SuccessURL: fmt.Sprintf("%s/verify?success=true&orderId=%s", s.frontendURL, order.ID),
		CancelURL:  fmt.Sprintf("%s/verify?success=false&orderId=%s", s.frontendURL, order.ID),
		Metadata:   metadata,
	})
	if err != nil {
		s.cleanupDiscount(ctx, discountID)
		return nil, s.classifyProviderError("create checkout session", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.cleanupDiscount(ctx, discountID)
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.Insert(ctx, tx, order); err != nil {
		s.cleanupDiscount(ctx, discountID)
		return nil, fmt.Errorf("insert order: %w", err)
	}
	if err := s.carts.Clear(ctx, tx, order.UserID); err != nil {
		s.cleanupDiscount(ctx, discountID)
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		s.cleanupDiscount(ctx, discountID)
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.PlaceOrderResult{
		OrderID:       order.ID,
		PaymentMethod: model.PaymentMethodOnline,
		SessionURL:    session.URL,
	}, nil
}

// ConfirmPayment handles the provider's asynchronous success/failure signal.
// COD orders confirm as an idempotent no-op. A successful online confirmation
// marks the order paid exactly once, records coupon usage and cleans up the
// provider-side discount object; a failed one deletes the unpaid order.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID string, success bool) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if order.PaymentMethod == model.PaymentMethodCOD {
		return nil // cash orders are verified by definition
	}

	if !success {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := s.orders.Delete(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("delete abandoned order: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		if order.StripeCouponID != nil {
			s.cleanupDiscount(ctx, *order.StripeCouponID)
		}
		return nil
	}

	if order.Payment {
		return nil // already confirmed, counters already moved
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.MarkPaid(ctx, tx, order.ID); err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}

	if order.CouponCode != nil {
		if err := s.recordConfirmedUsage(ctx, tx, *order.CouponCode, order.UserID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if order.StripeCouponID != nil {
		s.cleanupDiscount(ctx, *order.StripeCouponID)
	}
	return nil
}

// recordConfirmedUsage moves the coupon counters for a captured payment.
// The conditional increment is tried first; when a concurrent redemption beat
// this one to the limit the usage is recorded anyway, because the charge has
// already happened.
func (s *OrderService) recordConfirmedUsage(ctx context.Context, tx database.TxQuerier, code, userID string) error {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil // coupon deleted since checkout, nothing to count
	}

	err = s.coupons.Redeem(ctx, tx, code, userID, coupon.PerUserLimit)
	if _, late := lateIneligibility(err); late {
		log.Warn().
			Str("coupon_code", code).
			Str("user_id", userID).
			Msg("usage limit overshot at payment confirmation, recording anyway")
		err = s.coupons.RecordRedemption(ctx, tx, code, userID)
	}
	if err != nil {
		return fmt.Errorf("record coupon usage: %w", err)
	}
	return nil
}

// UserOrders returns the requesting user's orders.
func (s *OrderService) UserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	return s.orders.ListByUser(ctx, userID)
}

// ListOrders returns every order. Admin only.
func (s *OrderService) ListOrders(ctx context.Context, isAdmin bool) ([]model.Order, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	return s.orders.ListAll(ctx)
}

// UpdateStatus sets an order's delivery-pipeline status. Admin only; never
// touches coupon counters.
func (s *OrderService) UpdateStatus(ctx context.Context, isAdmin bool, orderID, status string) error {
	if !isAdmin {
		return ErrForbidden
	}
	found, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return err
	}
	if !found {
		return ErrOrderNotFound
	}
	return nil
}

// Remove deletes an order. Admin only. A paid order that used a coupon
// releases that coupon's counters symmetrically with the earlier redemption;
// a still-attached provider discount object is deleted best-effort.
func (s *OrderService) Remove(ctx context.Context, isAdmin bool, orderID string) error {
	if !isAdmin {
		return ErrForbidden
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.Delete(ctx, tx, order.ID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if order.Payment && order.CouponCode != nil {
		if err := s.coupons.Release(ctx, tx, *order.CouponCode, order.UserID); err != nil {
			return fmt.Errorf("release coupon usage: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if order.StripeCouponID != nil {
		s.cleanupDiscount(ctx, *order.StripeCouponID)
	}
	return nil
}

// cleanupDiscount deletes a provider-side discount object. Best-effort: a
// stale object costs nothing once usage is recorded server-side, so a failed
// delete is logged and never blocks the primary state transition.
func (s *OrderService) cleanupDiscount(ctx context.Context, discountID string) {
	if discountID == "" || s.provider == nil {
		return
	}
	if err := s.provider.DeleteDiscount(ctx, discountID); err != nil {
		log.Warn().
			Str("discount_id", discountID).
			Str("error", payment.Scrub(err.Error())).
			Msg("unable to clean up provider discount object")
	}
}

// classifyProviderError maps provider failures onto the service taxonomy.
// Credential problems must never leak to end users: they are logged scrubbed
// and surfaced as a generic payments-unavailable error.
func (s *OrderService) classifyProviderError(op string, err error) error {
	if errors.Is(err, payment.ErrAuth) {
		log.Error().
			Str("op", op).
			Str("error", payment.Scrub(err.Error())).
			Msg("payment provider rejected credentials")
		return ErrPaymentsUnavailable
	}
	log.Error().
		Str("op", op).
		Str("error", payment.Scrub(err.Error())).
		Msg("payment provider call failed")
	return fmt.Errorf("%w: %s", ErrPaymentFailed, op)
}

// lateIneligibility translates the conditional-increment sentinels into
// eligibility reasons for the public contract.
func lateIneligibility(err error) (pricing.Reason, bool) {
	switch {
	case errors.Is(err, ErrCouponExhausted):
		return pricing.ReasonGlobalLimitReached, true
	case errors.Is(err, ErrCouponUserExhausted):
		return pricing.ReasonPerUserLimitReached, true
	default:
		return "", false
	}
}
