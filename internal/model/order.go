package model

import "time"

// Payment methods accepted at checkout.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCOD    = "cod"
)

// Well-known order statuses. The status column is free text so operators can
// introduce intermediate delivery stages without a schema change.
const (
	StatusProcessing     = "Food Processing"
	StatusAwaitingCash   = "Awaiting cash collection"
	StatusOutForDelivery = "Out for delivery"
	StatusDelivered      = "Delivered"
)

// OrderItem is a line item frozen onto an order at checkout time.
// Prices are snapshots, never live references to the menu.
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category"`
}

// Order represents a customer order.
// Invariant: Amount = max(Subtotal - Discount, 0) + DeliveryFee, computed in
// integer cents and converted to decimal only for storage and display.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Items          []OrderItem     `json:"items"`
	Amount         float64         `json:"amount"`
	Subtotal       float64         `json:"subtotal"`
	DeliveryFee    float64         `json:"deliveryFee"`
	Discount       float64         `json:"discount"`
	Currency       string          `json:"currency"`
	Address        map[string]any  `json:"address"`
	Instructions   string          `json:"instructions"`
	Status         string          `json:"status"`
	Date           time.Time       `json:"date"`
	Payment        bool            `json:"payment"`
	PaymentMethod  string          `json:"paymentMethod"`
	CouponCode     *string         `json:"couponCode"`
	CouponSnapshot *CouponSnapshot `json:"couponSnapshot"`
	StripeCouponID *string         `json:"-"` // provider-side discount object, cleanup bookkeeping only
}

// PlaceOrderRequest is the DTO for placing an order.
type PlaceOrderRequest struct {
	Items         []OrderItem    `json:"items" validate:"required,min=1,dive"`
	Address       map[string]any `json:"address" validate:"required"`
	Instructions  string         `json:"instructions" validate:"max=1024"`
	PaymentMethod string         `json:"paymentMethod"`
	CouponCode    string         `json:"couponCode" validate:"max=64"`
}

// VerifyOrderRequest is the DTO for the payment confirmation callback.
type VerifyOrderRequest struct {
	OrderID string `json:"orderId" validate:"required,notblank"`
	Success *bool  `json:"success" validate:"required"`
}

// UpdateOrderStatusRequest is the DTO for the operator status update.
type UpdateOrderStatusRequest struct {
	OrderID string `json:"orderId" validate:"required,notblank"`
	Status  string `json:"status" validate:"required,notblank,max=64"`
}

// PlaceOrderResult is returned to the caller after a successful placement.
// SessionURL is only set for online payments.
type PlaceOrderResult struct {
	OrderID       string `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
	SessionURL    string `json:"sessionUrl,omitempty"`
}
