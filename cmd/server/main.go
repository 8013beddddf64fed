package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/config"
	"github.com/daveytran/playback-stats-staff-payer/internal/container"
	httpserver "github.com/daveytran/playback-stats-staff-payer/internal/interfaces/http"
	"github.com/daveytran/playback-stats-staff-payer/pkg/utils"
)

func main() {
	// Load .env for local development; a missing file is fine
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting staff payment system",
		zap.String("version", "1.0.0"),
		zap.String("ledger_backend", cfg.Ledger.Backend),
		zap.Int("port", cfg.Server.Port))

	// Create the data directory for the sqlite database
	if cfg.Store.Enabled || cfg.Ledger.Backend == config.LedgerBackendSQLite {
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				logger.Fatal("Failed to create data directory", zap.Error(err))
			}
		}
	}

	// Build and start the container
	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	// Start the HTTP server
	srv := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		c.Invoicing(),
		c.Store(),
		c.Workers(),
		c.ServiceLogger(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
		cancel()
		if err := <-errCh; err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}

	if err := c.Close(); err != nil {
		logger.Error("Container close error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
