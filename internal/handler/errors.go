package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/food-order-platform/internal/pricing"
	"github.com/fairyhunter13/food-order-platform/internal/service"
)

// formatValidationError converts validator errors to stable client messages.
// Only the first failing field is reported.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := lowerFirst(fe.Field())
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "min":
				return "invalid request: " + field + " has too few entries"
			case "gte":
				return "invalid request: " + field + " is out of range"
			case "oneof":
				return "invalid request: " + field + " has an unsupported value"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// serviceError maps service and pricing errors onto HTTP responses. Handlers
// call it after any endpoint-specific handling.
func serviceError(c *fiber.Ctx, err error) error {
	var ineligible *pricing.IneligibilityError
	if errors.As(err, &ineligible) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  ineligible.Reason.Message(),
			"reason": string(ineligible.Reason),
		})
	}

	switch {
	case errors.Is(err, pricing.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cart is empty or contains invalid items"})
	case errors.Is(err, pricing.ErrTotalTooLow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order total must be greater than zero"})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
	case errors.Is(err, service.ErrCouponNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
	case errors.Is(err, service.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, service.ErrCouponExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
	case errors.Is(err, service.ErrPaymentsUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "online payments are temporarily unavailable, please try cash on delivery",
		})
	case errors.Is(err, service.ErrPaymentFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "payment could not be initiated, please retry or use cash on delivery",
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
