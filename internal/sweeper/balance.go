package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yapdol/hype-ledger/internal/adapter"
	"github.com/yapdol/hype-ledger/internal/logger"
	"github.com/yapdol/hype-ledger/internal/store"
)

// ReconcileStore is the slice of the ledger store the sweeper needs
type ReconcileStore interface {
	// ListUserIDs retrieves every user ID for reconciliation fan-out
	ListUserIDs(ctx context.Context) ([]int64, error)
	// RecomputeBalances folds the activity ledger for one user and optionally
	// repairs drifted denormalized totals
	RecomputeBalances(ctx context.Context, userID int64, repair bool) (*store.BalanceDrift, error)
}

// BalanceSweeperConfig holds configuration for the balance reconciliation
// sweeper
type BalanceSweeperConfig struct {
	WorkerPoolSize int           // Concurrent workers
	QueueSize      int           // Pending recompute tasks per cycle
	Interval       time.Duration // Time between cycles; zero runs a single cycle
	Repair         bool          // Write back repaired totals, not just report drift
}

// balanceSweeper folds the activity ledger per user and compares it against
// the denormalized point totals, repairing them when configured to.
type balanceSweeper struct {
	config    *BalanceSweeperConfig
	store     ReconcileStore
	pool      pond.Pool
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewBalanceSweeper creates a new balance reconciliation sweeper
func NewBalanceSweeper(config *BalanceSweeperConfig, st ReconcileStore, clock adapter.Clock) Sweeper {
	return &balanceSweeper{
		config:    config,
		store:     st,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *balanceSweeper) Name() string {
	return "balance-sweeper"
}

// Start begins the sweeper's main loop. With a zero interval the sweeper
// runs a single reconciliation cycle and returns.
func (s *balanceSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.Info("Starting balance sweeper",
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Duration("interval", s.config.Interval),
		zap.Bool("repair", s.config.Repair),
	)

	for {
		err := s.runSweepCycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.ErrorCtx(ctx, err)
		}

		// One-shot mode surfaces the cycle result to the caller
		if s.config.Interval == 0 {
			return err
		}

		select {
		case <-ctx.Done():
			logger.Info("Balance sweeper stopping", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.Info("Balance sweeper stop requested")
			return nil
		case <-s.clock.After(s.config.Interval):
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *balanceSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.Info("Stopping balance sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runSweepCycle reconciles every user once
func (s *balanceSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()

	userIDs, err := s.listUserIDsWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to list user IDs: %w", err)
	}

	if len(userIDs) == 0 {
		logger.Info("No users to reconcile")
		return nil
	}

	logger.Info("Reconciling user balances", zap.Int("count", len(userIDs)))

	var driftedCount, repairedCount, failedCount atomic.Int32

	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.QueueSize),
		pond.WithContext(ctx),
	)
	s.pool = pool

	for _, userID := range userIDs {
		pool.Submit(func() {
			drift, err := s.store.RecomputeBalances(ctx, userID, s.config.Repair)
			if err != nil {
				failedCount.Add(1)
				logger.ErrorCtx(ctx, err, zap.Int64("user_id", userID))
				return
			}

			if drift.StoredTotal != drift.LedgerTotal || len(drift.DriftedArtists) > 0 {
				driftedCount.Add(1)
				logger.Warn("Balance drift detected",
					zap.Int64("user_id", userID),
					zap.Int64("stored_total", drift.StoredTotal),
					zap.Int64("ledger_total", drift.LedgerTotal),
					zap.Int64s("drifted_artists", drift.DriftedArtists),
					zap.Bool("repaired", drift.Repaired),
				)
			}
			if drift.Repaired {
				repairedCount.Add(1)
			}
		})
	}

	pool.StopAndWait()

	logger.Info("Reconciliation cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("total_users", len(userIDs)),
		zap.Int32("drifted", driftedCount.Load()),
		zap.Int32("repaired", repairedCount.Load()),
		zap.Int32("failed", failedCount.Load()),
	)

	return ctx.Err()
}

// listUserIDsWithRetry fetches the user ID set with exponential backoff so a
// transient database error does not skip a whole cycle
func (s *balanceSweeper) listUserIDsWithRetry(ctx context.Context) ([]int64, error) {
	var userIDs []int64

	operation := func() error {
		var err error
		userIDs, err = s.store.ListUserIDs(ctx)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	notify := func(err error, duration time.Duration) {
		logger.Warn("Failed to list user IDs, retrying",
			zap.Error(err),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}

	return userIDs, nil
}
