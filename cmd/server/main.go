// Package main initializes and starts the habitxp HTTP server, setting up
// configuration, logging, database connections, repositories, services,
// handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/habitxp/internal/config"
	"github.com/atinyakov/habitxp/internal/db"
	"github.com/atinyakov/habitxp/internal/logger"
	"github.com/atinyakov/habitxp/internal/middleware"
	"github.com/atinyakov/habitxp/internal/repository"
	"github.com/atinyakov/habitxp/internal/server/handler/http"
	"github.com/atinyakov/habitxp/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge daily tasks that were never completed, when configured.
	if options.TaskCleanupEnabled() {
		db.StartStaleTaskCleaner(ctx, postgresDB,
			options.CleanupInterval,
			options.TaskRetention,
			zapLogger,
		)
	}

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	catalogRepo := repository.NewPostgresCatalogRepository(postgresDB)
	ledgerRepo := repository.NewPostgresLedgerRepository(postgresDB)
	oneShotRepo := repository.NewPostgresOneShotRepository(postgresDB)
	analyticsRepo := repository.NewPostgresAnalyticsRepository(postgresDB)

	// Initialize business-logic services.
	catalogService := service.NewCatalogService(userRepo, catalogRepo, zapLogger)
	ledgerService := service.NewLedgerService(ledgerRepo, zapLogger)
	oneShotService := service.NewOneShotService(oneShotRepo, zapLogger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, zapLogger)

	// Create HTTP handlers.
	handlers := http.Handlers{
		Catalog:   &http.CatalogHandler{CatalogService: catalogService, Logger: zapLogger},
		Ledger:    &http.LedgerHandler{LedgerService: ledgerService, Logger: zapLogger},
		OneShot:   &http.OneShotHandler{OneShotService: oneShotService, Logger: zapLogger},
		Analytics: &http.AnalyticsHandler{AnalyticsService: analyticsService, Logger: zapLogger},
	}

	var limiter *middleware.RateLimiter
	if options.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(options.RateLimitRPS, options.RateLimitBurst, zapLogger)
		limiter.StartCleanup(10*time.Minute, ctx.Done())
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, limiter, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSEnabled() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
