package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gigbook/api/routes"
	"gigbook/internal/jobs"
	"gigbook/internal/shared/config"
	"gigbook/internal/shared/database"
	"gigbook/internal/shared/middleware"
	"gigbook/internal/units"
	"gigbook/pkg/logger"
	"gigbook/pkg/ratelimit"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to initialize databases", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Preload the hold scripts so the first reservation does not pay the
	// script-load round trip.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := units.NewHoldCache(db.Redis).PreloadScripts(ctx); err != nil {
			appLogger.Warn("Failed to preload Redis hold scripts", slog.Any("error", err))
		}
		cancel()
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, &ratelimit.Config{
			Enabled:                 cfg.RateLimit.Enabled,
			WindowDuration:          cfg.RateLimit.WindowDuration,
			DefaultRequests:         cfg.RateLimit.DefaultRequests,
			AvailabilityRequests:    cfg.RateLimit.AvailabilityRequests,
			BookingRequests:         cfg.RateLimit.BookingRequests,
			BookingCriticalRequests: cfg.RateLimit.BookingCriticalRequests,
			AdminRequests:           cfg.RateLimit.AdminRequests,
			HealthRequests:          cfg.RateLimit.HealthRequests,
			WhitelistedIPs:          cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	producer, err := jobs.NewKafkaStatusProducer(cfg.Kafka, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize status-job producer", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	appRouter := routes.NewRouter(cfg, db, rateLimiter, producer)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	handler := jobs.NewHandler(appRouter.BookingService, producer,
		cfg.Kafka.MaxRetries, cfg.Reservation.JobPollBackoff, appLogger)
	consumer, err := jobs.NewStatusConsumer(cfg.Kafka, handler, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize status-job consumer", slog.Any("error", err))
		os.Exit(1)
	}
	consumer.Start(workerCtx, cfg.Reservation.WorkerPoolSize)
	defer func() {
		if err := consumer.Stop(); err != nil {
			appLogger.Error("Error stopping status consumer", slog.Any("error", err))
		}
	}()

	sweeper := appRouter.Sweeper()
	sweeper.Start(workerCtx)
	defer sweeper.Stop()

	engine := setupEngine(cfg, rateLimiter, appLogger)
	appRouter.SetupRoutes(engine)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEngine(cfg *config.Config, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		middleware.Recovery(appLogger),
	)

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "X-User-ID", "X-Session-ID", "X-User-Role", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	return engine
}
