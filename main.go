package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	appCache "github.com/internshipkaro/platform-api/app/cache"
	database "github.com/internshipkaro/platform-api/app/db"
	appLogger "github.com/internshipkaro/platform-api/app/logger"
	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/app/tracer"
	"github.com/internshipkaro/platform-api/config"
	"github.com/internshipkaro/platform-api/internal/api/auth"
	"github.com/internshipkaro/platform-api/internal/api/course"
	"github.com/internshipkaro/platform-api/internal/api/user"
	"github.com/internshipkaro/platform-api/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Redis ---
	redisClient, err := appCache.Init(&cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close() //nolint:errcheck

	// --- Observability ---
	meterProvider, err := tracer.InitTracingAndMetrics(cfg.Metrics.Port, logger)
	if err != nil {
		logger.Error("Failed to initialize metrics exporter", slog.Any("error", err))
		os.Exit(1)
	}
	appMetrics, err := metrics.New(meterProvider.Meter("internshipkaro-api"))
	if err != nil {
		logger.Error("Failed to create metric instruments", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	tokenService := auth.NewTokenService(cfg.JWT)

	authRepo := auth.NewPostgresAuthRepo(pool, appMetrics, logger)
	authService := auth.NewAuthService(authRepo, tokenService, appMetrics, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	userRepo := user.NewPostgresUserRepo(pool, appMetrics, logger)
	userService := user.NewUserService(userRepo, redisClient, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	courseRepo := course.NewPostgresCourseRepo(pool, appMetrics, logger)
	courseService := course.NewCourseService(courseRepo, logger)
	courseHandler := course.NewHandlerImpl(courseService, logger)

	mainRouter := router.SetupRouter(&router.Config{
		AuthHandler:            authHandler,
		UserHandler:            userHandler,
		CourseHandler:          courseHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, tokenService),
		RequestLogger:          appLogger.StructuredLogger(logger),
	})

	// --- HTTP Server ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      middleware.StripSlashes(mainRouter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("Meter provider shutdown failed", slog.Any("error", err))
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures the application logger: colored logs for
// development, JSON for everything else.
func setupLogger(mode string) *slog.Logger {
	if mode == "development" || mode == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger := slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
		return logger
	}

	jsonOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
	log.Println("Initialized production logger (JSON)")
	return logger
}
