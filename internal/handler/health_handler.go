package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service liveness, including store reachability and
// whether online payments are currently wired.
type HealthHandler struct {
	pool            Pinger
	paymentsEnabled bool
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool Pinger, paymentsEnabled bool) *HealthHandler {
	return &HealthHandler{pool: pool, paymentsEnabled: paymentsEnabled}
}

// Check handles GET /api/health. Returns 503 when the database is unreachable;
// a disabled payment provider is reported but does not fail the check, since
// cash orders keep working without it.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.pool.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"payments": h.paymentsEnabled,
	})
}
