package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yapdol/hype-ledger/internal/adapter"
	"github.com/yapdol/hype-ledger/internal/config"
	"github.com/yapdol/hype-ledger/internal/logger"
	"github.com/yapdol/hype-ledger/internal/store"
	"github.com/yapdol/hype-ledger/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Service:   "sweeper",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting balance sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Create the balance reconciliation sweeper
	sw := sweeper.NewBalanceSweeper(&sweeper.BalanceSweeperConfig{
		WorkerPoolSize: cfg.Worker.PoolSize,
		QueueSize:      cfg.Worker.QueueSize,
		Interval:       cfg.Interval,
		Repair:         cfg.Repair,
	}, dataStore, adapter.NewClock())

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sw.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for completion (one-shot mode), failure, or interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := sw.Stop(stopCtx); err != nil {
			logger.Fatal("Sweeper forced to stop", zap.Error(err))
		}
	case err := <-errCh:
		logger.Error(err, zap.String("component", sw.Name()))
		os.Exit(1)
	case <-done:
	}

	logger.Info("Balance sweeper stopped")
}
