// Package mission tracks yapping mission submissions. A submission is
// two-phase: it sits in pending while the backend write is in flight and
// reaches completed only on a confirmed write, so the local state never
// claims success the ledger does not have.
package mission

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yapdol/hype-ledger/internal/domain"
)

// Status is the submission state of one mission
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Service persists a submission for the bound wallet and artist. A nil
// Service means no binding exists and submissions complete locally only.
type Service interface {
	Submit(ctx context.Context, missionID, url string) error
}

// Submission is the tracked state of one mission
type Submission struct {
	MissionID string
	URL       string
	Status    Status
	// Err is the retained failure cause, shown with the retry affordance
	Err error
}

// Tracker tracks mission submissions keyed by mission ID
type Tracker struct {
	mu       sync.Mutex
	service  Service
	missions map[string]*Submission
}

// NewTracker creates a tracker. Pass a nil service when no wallet or artist
// binding is available.
func NewTracker(service Service) *Tracker {
	return &Tracker{
		service:  service,
		missions: make(map[string]*Submission),
	}
}

// Submit records a mission proof URL and pushes it through the backend
// write. The mission is pending for the duration of the call and ends in
// completed or failed, never optimistically completed.
func (t *Tracker) Submit(ctx context.Context, missionID, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: mission url must not be empty", domain.ErrValidation)
	}

	t.mu.Lock()
	sub, ok := t.missions[missionID]
	if !ok {
		sub = &Submission{MissionID: missionID, Status: StatusIdle}
		t.missions[missionID] = sub
	}
	if sub.Status == StatusPending {
		t.mu.Unlock()
		return fmt.Errorf("%w: submission already in flight", domain.ErrValidation)
	}
	sub.URL = url
	sub.Status = StatusPending
	sub.Err = nil
	service := t.service
	t.mu.Unlock()

	var err error
	if service != nil {
		err = service.Submit(ctx, missionID, url)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		sub.Status = StatusFailed
		sub.Err = err
		return err
	}
	sub.Status = StatusCompleted
	return nil
}

// Get returns the tracked state of a mission. Unknown missions are idle.
func (t *Tracker) Get(missionID string) Submission {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sub, ok := t.missions[missionID]; ok {
		return *sub
	}
	return Submission{MissionID: missionID, Status: StatusIdle}
}

// Redo resets a mission to idle and clears the stored URL so it can be
// submitted again. Persisted rows from an earlier completed submit are
// intentionally left in place; the ledger is append-only.
func (t *Tracker) Redo(missionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sub, ok := t.missions[missionID]; ok && sub.Status != StatusPending {
		sub.Status = StatusIdle
		sub.URL = ""
		sub.Err = nil
	}
}
