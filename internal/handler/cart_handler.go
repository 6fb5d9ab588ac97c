package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/food-order-platform/internal/middleware"
	"github.com/fairyhunter13/food-order-platform/internal/model"
)

// CartServiceInterface defines the interface for cart data access used by the
// handler. The cart has no business rules beyond quantity bookkeeping, so the
// handler talks to the repository contract directly.
type CartServiceInterface interface {
	Get(ctx context.Context, userID string) (map[string]int, error)
	AddItem(ctx context.Context, userID, itemID string) error
	RemoveItem(ctx context.Context, userID, itemID string) error
}

// CartHandler handles HTTP requests for cart operations.
type CartHandler struct {
	carts     CartServiceInterface
	validator *validator.Validate
}

// NewCartHandler creates a new CartHandler with the given cart store and validator.
func NewCartHandler(carts CartServiceInterface, v *validator.Validate) *CartHandler {
	return &CartHandler{carts: carts, validator: v}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	items, err := h.carts.Get(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(model.CartResponse{Items: items})
}

// Add handles POST /api/cart/add.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	return h.mutate(c, h.carts.AddItem)
}

// Remove handles POST /api/cart/remove.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	return h.mutate(c, h.carts.RemoveItem)
}

func (h *CartHandler) mutate(c *fiber.Ctx, op func(ctx context.Context, userID, itemID string) error) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req model.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := op(c.Context(), userID, req.ItemID); err != nil {
		return serviceError(c, err)
	}

	items, err := h.carts.Get(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(model.CartResponse{Items: items})
}
