package sweeper

import (
	"context"
)

// Sweeper is a long-running background maintenance task, such as the
// ledger balance reconciler.
type Sweeper interface {
	// Start runs the sweeper's loop. It blocks until the context is
	// canceled or, for one-shot sweepers, until the single cycle ends.
	Start(ctx context.Context) error

	// Stop shuts the sweeper down, waiting for in-flight work to finish
	Stop(ctx context.Context) error

	// Name identifies the sweeper in logs
	Name() string
}
