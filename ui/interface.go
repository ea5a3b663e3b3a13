package ui

import (
	"github.com/drake/feeheat/event"
	"github.com/drake/feeheat/source"
)

// UI defines the contract for a rendering surface.
// Implementations: BubbleTeaUI and ConsoleUI.
type UI interface {
	// --- Lifecycle ---
	Run() error
	Quit()
	Done() <-chan struct{}

	// Outbound control requests (quit, pause) for the session loop.
	Outbound() <-chan event.Event

	// --- Push state ---
	// ShowFrame replaces the displayed frame wholesale.
	ShowFrame(d source.Delivery)
	// SetStatus refreshes polling state and counters.
	SetStatus(s Status)
}

// Status is the polling state shown beside the grid.
type Status struct {
	Polling  bool
	Endpoint string
	Stats    source.Stats
}
