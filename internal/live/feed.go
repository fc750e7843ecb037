// Package live carries real-time viewer and hype metrics from a producer to
// the artist detail view. The feed is a push interface: the simulator and a
// real telemetry source are interchangeable behind it.
package live

import (
	"context"
	"time"
)

// MetricEvent is one update of an artist's live counters
type MetricEvent struct {
	// EventID is a ULID, unique and time-ordered per producer
	EventID string `json:"event_id"`
	// ArtistID identifies the artist the counters belong to
	ArtistID int64 `json:"artist_id"`
	// Viewers is the current simulated or measured viewer count
	Viewers int64 `json:"viewers"`
	// HypePoints is the artist's running hype total
	HypePoints int64 `json:"hype_points"`
	// Timestamp is when the producer emitted the event
	Timestamp time.Time `json:"timestamp"`
}

// Publisher pushes metric events into the feed
type Publisher interface {
	Publish(ctx context.Context, event *MetricEvent) error
	Close()
}

// Feed delivers metric events for one artist. The returned channel closes
// when the subscription ends; cancel releases the subscription early.
type Feed interface {
	Subscribe(ctx context.Context, artistID int64) (<-chan MetricEvent, func(), error)
}
