package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/food-order-platform/internal/config"
	"github.com/fairyhunter13/food-order-platform/internal/handler"
	"github.com/fairyhunter13/food-order-platform/internal/middleware"
	"github.com/fairyhunter13/food-order-platform/internal/payment"
	"github.com/fairyhunter13/food-order-platform/internal/repository"
	"github.com/fairyhunter13/food-order-platform/internal/service"
	"github.com/fairyhunter13/food-order-platform/internal/validator"
	"github.com/fairyhunter13/food-order-platform/pkg/database"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Food Order Platform",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	// Payment provider is optional: without a real Stripe key the service
	// still runs, with online placement answering 503 and COD unaffected.
	var provider payment.Provider
	if payment.Configured(cfg.Stripe.SecretKey) {
		provider = payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Order.Currency, cfg.Stripe.Timeout())
		log.Info().Msg("online payments enabled")
	} else {
		log.Warn().Msg("no payment provider configured, online orders disabled")
	}

	// Layered wiring: repositories over the pool, services over repositories
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	cartRepo := repository.NewCartRepository(pool)

	couponService := service.NewCouponService(couponRepo)
	orderService := service.NewOrderService(pool, orderRepo, couponRepo, cartRepo, provider, cfg.Order)

	couponHandler := handler.NewCouponHandler(couponService, validate)
	orderHandler := handler.NewOrderHandler(orderService, validate)
	cartHandler := handler.NewCartHandler(cartRepo, validate)
	healthHandler := handler.NewHealthHandler(pool, provider != nil)

	auth := middleware.Auth(cfg.Auth.JWTSecret)

	app.Get("/api/health", healthHandler.Check)

	// Coupon routes: storefront listing is public, everything else is authed
	app.Get("/api/coupons/active", couponHandler.Active)
	app.Post("/api/coupons/validate", auth, couponHandler.Validate)
	app.Post("/api/coupons", auth, couponHandler.Create)
	app.Get("/api/coupons", auth, couponHandler.List)
	app.Put("/api/coupons/:code", auth, couponHandler.Update)
	app.Delete("/api/coupons/:code", auth, couponHandler.Delete)

	// Order routes: verify is the provider redirect callback, no token there
	app.Post("/api/orders/place", auth, orderHandler.Place)
	app.Post("/api/orders/verify", orderHandler.Verify)
	app.Get("/api/orders/mine", auth, orderHandler.Mine)
	app.Get("/api/orders", auth, orderHandler.List)
	app.Post("/api/orders/status", auth, orderHandler.UpdateStatus)
	app.Delete("/api/orders/:id", auth, orderHandler.Remove)

	// Cart routes
	app.Get("/api/cart", auth, cartHandler.Get)
	app.Post("/api/cart/add", auth, cartHandler.Add)
	app.Post("/api/cart/remove", auth, cartHandler.Remove)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
