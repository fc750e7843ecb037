package live

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/yapdol/hype-ledger/internal/adapter"
	"github.com/yapdol/hype-ledger/internal/logger"
)

// Tick bounds for the simulated counters
const (
	// DefaultTickInterval is how often counters are perturbed
	DefaultTickInterval = 3 * time.Second
	// viewer delta per tick is in [viewersDeltaMin, viewersDeltaMax]
	viewersDeltaMin = -5
	viewersDeltaMax = 14
	// hype delta per tick is in [0, hypeDeltaMax]
	hypeDeltaMax = 99
)

// ArtistSeed is the starting state for one simulated artist channel
type ArtistSeed struct {
	ArtistID   int64
	Viewers    int64
	HypePoints int64
}

// Simulator is the demo implementation of the live feed producer: a
// clock-driven tick perturbs each seeded artist's counters by bounded random
// deltas and publishes the result. A real telemetry source replaces it
// without touching the consumers.
type Simulator struct {
	publisher Publisher
	clock     adapter.Clock
	interval  time.Duration
	rng       *rand.Rand
	entropy   *ulid.MonotonicEntropy
	state     []ArtistSeed
}

// NewSimulator creates a simulator over the given artist seeds
func NewSimulator(publisher Publisher, clock adapter.Clock, interval time.Duration, seeds []ArtistSeed) *Simulator {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	source := rand.New(rand.NewSource(clock.Now().UnixNano())) //nolint:gosec
	return &Simulator{
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		rng:       source,
		entropy:   ulid.Monotonic(source, 0),
		state:     seeds,
	}
}

// Run ticks until the context is cancelled. Publish failures are logged and
// the tick continues; the feed is best-effort.
func (s *Simulator) Run(ctx context.Context) error {
	logger.Info("Starting live metrics simulator",
		zap.Int("artists", len(s.state)),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Live metrics simulator stopped")
			return ctx.Err()
		case <-s.clock.After(s.interval):
			s.tick(ctx)
		}
	}
}

// tick advances every seeded artist by one bounded random step
func (s *Simulator) tick(ctx context.Context) {
	now := s.clock.Now()
	for i := range s.state {
		s.state[i].Viewers += s.viewersDelta()
		if s.state[i].Viewers < 0 {
			s.state[i].Viewers = 0
		}
		s.state[i].HypePoints += s.hypeDelta()

		event := &MetricEvent{
			EventID:    ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
			ArtistID:   s.state[i].ArtistID,
			Viewers:    s.state[i].Viewers,
			HypePoints: s.state[i].HypePoints,
			Timestamp:  now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			logger.ErrorCtx(ctx, err, zap.Int64("artist_id", event.ArtistID))
		}
	}
}

func (s *Simulator) viewersDelta() int64 {
	return viewersDeltaMin + s.rng.Int63n(viewersDeltaMax-viewersDeltaMin+1)
}

func (s *Simulator) hypeDelta() int64 {
	return s.rng.Int63n(hypeDeltaMax + 1)
}
