// Package main provides the entry point for the presence service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l4m1fy/playerpop/internal/config"
	apierrors "github.com/l4m1fy/playerpop/internal/errors"
	"github.com/l4m1fy/playerpop/internal/handler"
	"github.com/l4m1fy/playerpop/internal/health"
	"github.com/l4m1fy/playerpop/internal/metrics"
	"github.com/l4m1fy/playerpop/internal/model"
	"github.com/l4m1fy/playerpop/internal/presence"
	"github.com/l4m1fy/playerpop/internal/server"
	"github.com/l4m1fy/playerpop/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("starting playerpop presence service")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("tenants", len(cfg.Tenants)),
	)

	// Build the state store with one cell per configured tenant, each seeded
	// offline at its declared capacity.
	capacities := make(map[string]int, len(cfg.Tenants))
	for tenantID, tenant := range cfg.Tenants {
		capacities[tenantID] = tenant.MaxPlayers
	}
	stateStore := store.New(capacities)

	m := metrics.New()

	// Presence sessions resynchronize from the store after every reconnect.
	manager := presence.NewManager(cfg.Tenants, cfg.Presence, func(tenantID string) model.TenantState {
		state, _ := stateStore.Get(tenantID)
		return state
	}, logger, m)

	// Applied events reach the sessions through the manager; the callback
	// runs under the tenant's cell lock, so renders follow apply order.
	stateStore.OnChange(manager.Notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Start(ctx)

	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	errorHandler := apierrors.NewHandler(logger)
	handlers := handler.NewHandlers(cfg.Tenants, stateStore, errorHandler, m, logger)
	healthCheck := health.NewHealthCheck(stateStore, manager, logger)

	httpServer := server.NewServer(cfg, handlers, healthCheck, m, logger)
	httpServer.SetupRoutes()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting events first, then drain the presence sessions.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}

	if err := manager.Close(shutdownCtx); err != nil {
		logger.Error("failed to close presence sessions", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	logger.Info("playerpop shutdown complete")
}

// initLogger initializes the zap logger.
func initLogger() *zap.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var level zapcore.Level
	switch logLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if os.Getenv("LOG_FORMAT") == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
