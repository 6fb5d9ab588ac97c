package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/food-order-platform/internal/middleware"
	"github.com/fairyhunter13/food-order-platform/internal/model"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error)
	List(ctx context.Context, isAdmin bool) ([]model.Coupon, error)
	Update(ctx context.Context, isAdmin bool, code string, req *model.UpdateCouponRequest) (*model.Coupon, error)
	Delete(ctx context.Context, isAdmin bool, code string) error
	Validate(ctx context.Context, code string, subtotal float64, userID string) (*model.CouponQuote, error)
	ActiveCoupons(ctx context.Context) ([]model.ActiveCoupon, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// Create handles POST /api/coupons. Admin only.
func (h *CouponHandler) Create(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), middleware.IsAdmin(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	log.Info().Str("coupon_code", coupon.Code).Msg("coupon created")
	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// List handles GET /api/coupons. Admin only.
func (h *CouponHandler) List(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.Context(), middleware.IsAdmin(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"coupons": coupons})
}

// Update handles PUT /api/coupons/:code. Admin only; the code is immutable.
func (h *CouponHandler) Update(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Update(c.Context(), middleware.IsAdmin(c), code, &req)
	if err != nil {
		return serviceError(c, err)
	}

	log.Info().Str("coupon_code", coupon.Code).Msg("coupon updated")
	return c.JSON(coupon)
}

// Delete handles DELETE /api/coupons/:code. Admin only.
func (h *CouponHandler) Delete(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	if err := h.service.Delete(c.Context(), middleware.IsAdmin(c), code); err != nil {
		return serviceError(c, err)
	}

	log.Info().Str("coupon_code", code).Msg("coupon deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// Validate handles POST /api/coupons/validate. Quotes the discount a coupon
// would grant on the given subtotal without redeeming anything.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	userID, _ := middleware.UserID(c)
	quote, err := h.service.Validate(c.Context(), req.Code, *req.Subtotal, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(quote)
}

// Active handles GET /api/coupons/active, the public storefront listing.
func (h *CouponHandler) Active(c *fiber.Ctx) error {
	coupons, err := h.service.ActiveCoupons(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"coupons": coupons})
}
