// Package viewstate models the artist detail screen: which tabs exist for an
// artist, which one is active, which modals are open, and the live counter
// snapshot. Pure state, no I/O; feed subscriptions are driven by the caller
// off the LiveActive transitions.
package viewstate

import (
	"errors"
	"fmt"

	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/live"
)

// Tab is one pane of the artist detail screen
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabGrowth    Tab = "growth"
	TabVault     Tab = "vault"
	TabLive      Tab = "live"
	TabActivity  Tab = "activity"
	TabGoods     Tab = "goods"
)

// Modal is an overlay that can open on top of any tab
type Modal string

const (
	ModalGift     Modal = "gift"
	ModalSwap     Modal = "swap"
	ModalLightbox Modal = "lightbox"
	ModalMission  Modal = "mission"
)

var (
	// ErrInvalidTab indicates a tab outside the artist's tab set
	ErrInvalidTab = errors.New("tab not available for this artist")
	// ErrClosed indicates the detail view has already emitted its back signal
	ErrClosed = errors.New("detail view closed")
)

var (
	fundingTabs = []Tab{TabDashboard, TabGrowth, TabVault, TabLive}
	marketTabs  = []Tab{TabDashboard, TabLive, TabActivity, TabGoods, TabVault}
)

// TabsFor returns the ordered tab set for an artist status
func TabsFor(status domain.ArtistStatus) []Tab {
	switch status {
	case domain.ArtistStatusMarket:
		return marketTabs
	default:
		return fundingTabs
	}
}

// Snapshot is the most recent live counter state
type Snapshot struct {
	Viewers     int64
	HypePoints  int64
	LastEventID string
}

// Detail is the view state of one open artist detail screen
type Detail struct {
	artistID int64
	status   domain.ArtistStatus
	tabs     []Tab
	active   Tab
	modals   map[Modal]bool
	snapshot Snapshot
	closed   bool
}

// NewDetail opens a detail view for an artist. The initial tab is always
// the dashboard.
func NewDetail(artistID int64, status domain.ArtistStatus) *Detail {
	return &Detail{
		artistID: artistID,
		status:   status,
		tabs:     TabsFor(status),
		active:   TabDashboard,
		modals:   make(map[Modal]bool),
	}
}

// Tabs returns the ordered tab set
func (d *Detail) Tabs() []Tab {
	return d.tabs
}

// ActiveTab returns the currently selected tab
func (d *Detail) ActiveTab() Tab {
	return d.active
}

// SelectTab moves to another tab. Tabs outside the artist's set are
// rejected and the active tab is unchanged.
func (d *Detail) SelectTab(tab Tab) error {
	if d.closed {
		return ErrClosed
	}
	for _, candidate := range d.tabs {
		if candidate == tab {
			d.active = tab
			return nil
		}
	}
	return fmt.Errorf("%w: %q for status %q", ErrInvalidTab, tab, d.status)
}

// LiveActive reports whether the live tab is showing; the caller holds a
// feed subscription open exactly while this is true
func (d *Detail) LiveActive() bool {
	return !d.closed && d.active == TabLive
}

// OpenModal opens an overlay. Modals are independent; opening one does not
// close another.
func (d *Detail) OpenModal(m Modal) {
	if d.closed {
		return
	}
	d.modals[m] = true
}

// CloseModal closes an overlay
func (d *Detail) CloseModal(m Modal) {
	delete(d.modals, m)
}

// ModalOpen reports whether an overlay is showing
func (d *Detail) ModalOpen(m Modal) bool {
	return d.modals[m]
}

// ApplyMetric folds a live feed event into the snapshot. Events for another
// artist and stale events, ones at or before the last applied ULID, are
// ignored.
func (d *Detail) ApplyMetric(event live.MetricEvent) {
	if d.closed || event.ArtistID != d.artistID {
		return
	}
	if d.snapshot.LastEventID != "" && event.EventID <= d.snapshot.LastEventID {
		return
	}
	d.snapshot = Snapshot{
		Viewers:     event.Viewers,
		HypePoints:  event.HypePoints,
		LastEventID: event.EventID,
	}
}

// LiveSnapshot returns the current live counters
func (d *Detail) LiveSnapshot() Snapshot {
	return d.snapshot
}

// Close emits the back signal. A closed view accepts no further transitions.
func (d *Detail) Close() {
	d.closed = true
	d.modals = make(map[Modal]bool)
}

// Closed reports whether the back signal has been emitted
func (d *Detail) Closed() bool {
	return d.closed
}
