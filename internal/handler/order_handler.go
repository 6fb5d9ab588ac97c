package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/food-order-platform/internal/middleware"
	"github.com/fairyhunter13/food-order-platform/internal/model"
)

// OrderServiceInterface defines the interface for order business logic.
type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, userID string, req *model.PlaceOrderRequest) (*model.PlaceOrderResult, error)
	ConfirmPayment(ctx context.Context, orderID string, success bool) error
	UserOrders(ctx context.Context, userID string) ([]model.Order, error)
	ListOrders(ctx context.Context, isAdmin bool) ([]model.Order, error)
	UpdateStatus(ctx context.Context, isAdmin bool, orderID, status string) error
	Remove(ctx context.Context, isAdmin bool, orderID string) error
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service   OrderServiceInterface
	validator *validator.Validate
}

// NewOrderHandler creates a new OrderHandler with the given service and validator.
func NewOrderHandler(svc OrderServiceInterface, v *validator.Validate) *OrderHandler {
	return &OrderHandler{service: svc, validator: v}
}

// Place handles POST /api/orders/place.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req model.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	result, err := h.service.PlaceOrder(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err)
	}

	log.Info().
		Str("order_id", result.OrderID).
		Str("user_id", userID).
		Str("payment_method", result.PaymentMethod).
		Msg("order placed")
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Verify handles POST /api/orders/verify, the payment redirect callback.
func (h *OrderHandler) Verify(c *fiber.Ctx) error {
	var req model.VerifyOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.ConfirmPayment(c.Context(), req.OrderID, *req.Success); err != nil {
		return serviceError(c, err)
	}

	log.Info().Str("order_id", req.OrderID).Bool("success", *req.Success).Msg("payment verified")
	return c.JSON(fiber.Map{"verified": *req.Success})
}

// Mine handles GET /api/orders/mine, the requesting user's order history.
func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	orders, err := h.service.UserOrders(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// List handles GET /api/orders. Admin only.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.Context(), middleware.IsAdmin(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// UpdateStatus handles POST /api/orders/status. Admin only.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req model.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.UpdateStatus(c.Context(), middleware.IsAdmin(c), req.OrderID, req.Status); err != nil {
		return serviceError(c, err)
	}

	log.Info().Str("order_id", req.OrderID).Str("status", req.Status).Msg("order status updated")
	return c.JSON(fiber.Map{"updated": true})
}

// Remove handles DELETE /api/orders/:id. Admin only.
func (h *OrderHandler) Remove(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id is required"})
	}

	if err := h.service.Remove(c.Context(), middleware.IsAdmin(c), orderID); err != nil {
		return serviceError(c, err)
	}

	log.Info().Str("order_id", orderID).Msg("order removed")
	return c.SendStatus(fiber.StatusNoContent)
}
