package main

import (
	"context"
	"errors"
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
	"github.com/yapdol/hype-ledger/internal/live"
	"github.com/yapdol/hype-ledger/internal/logger"
	"github.com/yapdol/hype-ledger/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadEmitterConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Service:   "live-emitter",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting live metrics emitter")

	// Connect to database to seed the simulator with the artist roster
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)

	artists, err := dataStore.ListArtists(ctx)
	if err != nil {
		logger.Fatal("Failed to list artists", zap.Error(err))
	}
	if len(artists) == 0 {
		logger.Fatal("No artists to emit metrics for")
	}

	seeds := make([]live.ArtistSeed, 0, len(artists))
	for _, artist := range artists {
		seeds = append(seeds, live.ArtistSeed{
			ArtistID:   artist.ID,
			Viewers:    50 + artist.ContributorCount,
			HypePoints: artist.HypePoints,
		})
	}

	// Connect to the live metrics feed as publisher
	feed, err := live.NewJetStreamFeed(ctx, live.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: "hype-ledger-live-emitter",
	})
	if err != nil {
		logger.Fatal("Failed to connect to live feed", zap.Error(err))
	}
	defer feed.Close()
	logger.Info("Connected to live feed",
		zap.String("url", cfg.NATS.URL),
		zap.Int("artists", len(seeds)),
	)

	simulator := live.NewSimulator(feed, adapter.NewClock(), cfg.Simulator.TickInterval, seeds)

	errCh := make(chan error, 1)
	go func() {
		if err := simulator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "simulator"))
		cancel()
	}

	logger.Info("Live metrics emitter stopped")
}
