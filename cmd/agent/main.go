// Package main provides the entry point for the producer agent.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/agent"
	"github.com/l4m1fy/playerpop/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	cfg, err := config.LoadAgent(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("starting playerpop agent",
		zap.String("tenant", cfg.TenantID),
		zap.String("status_url", cfg.StatusURL),
	)

	emitter := agent.NewEmitter(cfg, logger)
	watcher := agent.NewWatcher(cfg, emitter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	watcher.Run(ctx)
	logger.Info("agent stopped")
}

// initLogger initializes the zap logger.
func initLogger() *zap.Logger {
	var cfg zap.Config
	if os.Getenv("LOG_FORMAT") == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
