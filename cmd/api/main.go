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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/printhub/coupon-platform/internal/config"
	"github.com/printhub/coupon-platform/internal/couponcode"
	"github.com/printhub/coupon-platform/internal/handler"
	"github.com/printhub/coupon-platform/internal/notify"
	"github.com/printhub/coupon-platform/internal/otp"
	"github.com/printhub/coupon-platform/internal/repository"
	"github.com/printhub/coupon-platform/internal/service"
	"github.com/printhub/coupon-platform/internal/validator"
	"github.com/printhub/coupon-platform/pkg/database"
)

const otpSweepInterval = 60 * time.Second

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// OTP session store: Redis when configured, in-process memory otherwise.
	// The memory store needs its own sweep loop; Redis expires keys itself.
	var sessions otp.SessionStore
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		sessions = otp.NewRedisStore(client)
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("otp sessions backed by redis")
	} else {
		memStore := otp.NewMemoryStore()
		go memStore.RunSweeper(ctx, otpSweepInterval)
		sessions = memStore
		log.Info().Msg("otp sessions backed by process memory")
	}

	// Notification and OTP code wiring. Demo mode selects the fixed code and
	// logging notifiers here; services never branch on the environment.
	var codes otp.CodeSource = otp.RandomSource{}
	if cfg.App.DemoMode {
		codes = otp.NewFixedSource()
	}

	var email notify.Notifier = notify.LogNotifier{}
	if !cfg.App.DemoMode && cfg.SMTP.Configured() {
		email = notify.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.FromEmail, cfg.SMTP.FromName)
	}
	var notifier notify.Notifier = notify.LogNotifier{}
	if !cfg.App.DemoMode && cfg.SMS.Configured() {
		notifier = notify.NewTwilioNotifier(cfg.SMS.TwilioAccountSID,
			cfg.SMS.TwilioAuthToken, cfg.SMS.TwilioFromNumber, email)
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon Platform",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB body limit
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	validate := validator.New()

	// Layered wiring: repositories -> services -> handlers
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	generator := couponcode.NewGenerator(couponRepo)

	couponService := service.NewCouponService(pool, couponRepo, orderRepo, productRepo, usageRepo, generator)
	purchaseService := service.NewPurchaseService(orderRepo, productRepo, couponService, notifier)
	issuanceService := service.NewIssuanceService(couponRepo, orderRepo, couponService, sessions, codes, notifier)

	couponHandler := handler.NewCouponHandler(couponService, validate)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, validate)
	generateHandler := handler.NewGenerateHandler(issuanceService, validate)
	adminHandler := handler.NewAdminHandler(couponService, validate)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")
	api.Get("/products", purchaseHandler.ListProducts)
	api.Get("/products/:id", purchaseHandler.GetProduct)
	api.Post("/purchases", purchaseHandler.CreatePurchase)

	api.Get("/coupons/validate/:code", couponHandler.Validate)
	api.Post("/coupons/apply", couponHandler.Apply)
	api.Get("/coupons/:code", couponHandler.Get)

	gen := api.Group("/generate")
	gen.Get("/invoice/:orderNumber", generateHandler.Invoice)
	gen.Post("/request-otp", generateHandler.RequestOTP)
	gen.Post("/verify-and-generate", generateHandler.VerifyAndGenerate)
	gen.Post("/resend-otp", generateHandler.ResendOTP)

	admin := api.Group("/admin")
	admin.Get("/coupons", adminHandler.ListCoupons)
	admin.Post("/coupons", adminHandler.CreateCoupon)
	admin.Patch("/coupons/:id/status", adminHandler.UpdateCouponStatus)
	admin.Get("/analytics", adminHandler.Analytics)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("demo_mode", cfg.App.DemoMode).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests), then stop the sweeper
	// and close the pool.
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	cancel()
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
