// Package main provides the API server entry point for the farmer lookup service.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xrpl-farmer-api/internal/api"
	"github.com/xrpl-farmer-api/internal/config"
	"github.com/xrpl-farmer-api/internal/logging"
	"github.com/xrpl-farmer-api/internal/metrics"
	"github.com/xrpl-farmer-api/internal/ratelimit"
	"github.com/xrpl-farmer-api/internal/service"
	"github.com/xrpl-farmer-api/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	defer logger.Sync()

	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(startupCtx, &cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"host":     cfg.Database.Postgres.Host,
			"database": cfg.Database.Postgres.Database,
		}).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	logger.WithField("database", cfg.Database.Postgres.Database).Info("Connected to Postgres")

	// Rate limiter: shared through Redis when configured, in process otherwise
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiterCfg := ratelimit.Config{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
		}

		if cfg.Database.Redis.Enabled() {
			redisStore, err := storage.NewRedisStore(startupCtx, &cfg.Database.Redis)
			if err != nil {
				logger.WithError(err).Fatal("Failed to connect to Redis")
			}
			defer redisStore.Close()

			limiter, err = ratelimit.NewRedisLimiter(redisStore.Client(), limiterCfg)
			if err != nil {
				logger.WithError(err).Fatal("Failed to create rate limiter")
			}
			logger.Info("Using Redis rate limiter")
		} else {
			limiter, err = ratelimit.NewMemoryLimiter(limiterCfg)
			if err != nil {
				logger.WithError(err).Fatal("Failed to create rate limiter")
			}
			logger.Info("Using in-memory rate limiter")
		}
	}

	// Initialize repositories and services
	farmerRepo := storage.NewFarmerRepository(postgres.Pool(), cfg.Lookup.Table)
	lookupService := service.NewLookupService(farmerRepo, service.LookupConfig{
		DatabaseName:     cfg.Database.Postgres.Database,
		MaxBulkAddresses: cfg.Lookup.MaxBulkAddresses,
	}, logger)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	}

	server := api.NewServer(serverConfig, lookupService, postgres, limiter, logger)

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.DefaultServer(cfg.Metrics.Addr)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
		logger.WithField("addr", cfg.Metrics.Addr).Info("Metrics server started")
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Infof("XRPL farmer lookup API running at http://%s", server.Addr())

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
