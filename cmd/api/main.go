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

	"github.com/fairyhunter13/loyalty-rewards-system/internal/cache"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/config"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/handler"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/repository"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/validator"
	"github.com/fairyhunter13/loyalty-rewards-system/pkg/database"
)

func main() {
	// Load .env for local development; ignored when absent
	_ = godotenv.Load()

	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Run schema migrations before opening the pool
	if err := database.Migrate(cfg.DB.DSN()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.PoolDSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Optional Redis cache for the featured listing
	redisClient, err := database.NewRedis(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Loyalty Rewards System",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Initialize components (layered architecture)
	accountRepo := repository.NewAccountRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)

	var featuredCache service.FeaturedCache
	if redisClient != nil {
		featuredCache = cache.NewFeaturedCache(redisClient, time.Duration(cfg.Redemption.FeaturedTTL)*time.Second)
	}

	ledgerService := service.NewLedgerService(pool, accountRepo, ledgerRepo, cfg.Points.WelcomeBonus)
	catalogService := service.NewCatalogService(couponRepo, accountRepo, featuredCache)
	redemptionService := service.NewRedemptionService(pool, accountRepo, couponRepo, ledgerRepo, redemptionRepo,
		service.RedemptionOptions{
			TTL:          time.Duration(cfg.Redemption.TTLDays) * 24 * time.Hour,
			CodeLength:   cfg.Redemption.CodeLength,
			CodeAttempts: cfg.Redemption.CodeAttempts,
		})

	accountHandler := handler.NewAccountHandler(ledgerService, validate)
	eventHandler := handler.NewEventHandler(ledgerService, validate, cfg.Points)
	couponHandler := handler.NewCouponHandler(catalogService, validate)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService, validate)

	// Health handler
	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)

	// Account + ledger routes
	app.Post("/api/accounts", accountHandler.CreateAccount)
	app.Get("/api/accounts/:id/balance", accountHandler.GetBalance)
	app.Get("/api/accounts/:id/history", accountHandler.GetHistory)
	app.Get("/api/accounts/:id/coupons", couponHandler.AvailableCoupons)
	app.Post("/api/accounts/:id/adjust", accountHandler.Adjust)
	app.Post("/api/accounts/:id/deactivate", accountHandler.Deactivate)

	// Event ingestion
	app.Post("/api/events", eventHandler.PostEvent)

	// Catalog routes; featured before :code so it isn't captured as a code
	app.Post("/api/coupons", couponHandler.CreateCoupon)
	app.Get("/api/coupons/featured", couponHandler.Featured)
	app.Get("/api/coupons/:code", couponHandler.GetCoupon)

	// Redemption routes
	app.Post("/api/redemptions", redemptionHandler.Redeem)
	app.Get("/api/redemptions/:code", redemptionHandler.GetRedemption)
	app.Post("/api/redemptions/:code/use", redemptionHandler.MarkUsed)

	// Start server with graceful shutdown
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

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close connections AFTER server shutdown (even if shutdown timed out)
	database.CloseRedis(redisClient)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
