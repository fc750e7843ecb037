package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/yapdol/hype-ledger/internal/logger"
)

// Config holds the configuration for the NATS JetStream feed
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

// jetStreamFeed implements both Publisher and Feed over one connection
type jetStreamFeed struct {
	nc         *nats.Conn
	js         jetstream.JetStream
	streamName string
}

// NewJetStreamFeed connects to NATS and ensures the live metrics stream
// exists. The returned value serves as both ends of the feed.
func NewJetStreamFeed(ctx context.Context, cfg Config) (*jetStreamFeed, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Live counters are ephemeral; keep only a short replay window
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{fmt.Sprintf("%s.metrics.>", cfg.StreamName)},
		MaxAge:   time.Minute,
		Storage:  jetstream.MemoryStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &jetStreamFeed{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
	}, nil
}

func (f *jetStreamFeed) subject(artistID int64) string {
	return fmt.Sprintf("%s.metrics.%d", f.streamName, artistID)
}

// Publish pushes one metric event into the stream
func (f *jetStreamFeed) Publish(ctx context.Context, event *MetricEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = f.js.Publish(ctx, f.subject(event.ArtistID), data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe delivers metric events for one artist over an ephemeral
// consumer. Consumer creation retries with exponential backoff so a brief
// NATS outage delays the subscription instead of failing it.
func (f *jetStreamFeed) Subscribe(ctx context.Context, artistID int64) (<-chan MetricEvent, func(), error) {
	var consumer jetstream.Consumer
	createConsumer := func() error {
		var err error
		consumer, err = f.js.CreateOrUpdateConsumer(ctx, f.streamName, jetstream.ConsumerConfig{
			FilterSubject: f.subject(artistID),
			DeliverPolicy: jetstream.DeliverNewPolicy,
			AckPolicy:     jetstream.AckNonePolicy,
		})
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(createConsumer, policy); err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	events := make(chan MetricEvent, 16)
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var event MetricEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			logger.Error(err, zap.String("subject", msg.Subject()))
			return
		}
		select {
		case events <- event:
		default:
			// Slow consumer: drop rather than block the feed
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to consume: %w", err)
	}

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
		})
	}

	// The events channel closes only after the consume context has fully
	// stopped, so the handler can never send on a closed channel
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		cc.Stop()
		<-cc.Closed()
		close(events)
	}()

	return events, cancel, nil
}

// Close closes the NATS connection
func (f *jetStreamFeed) Close() {
	if f.nc != nil {
		f.nc.Close()
	}
}
