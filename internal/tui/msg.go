package tui

import (
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/store"
)

// eventMsg wraps a coordinator event for the root model.
type eventMsg coordinator.Event

// eventsClosedMsg signals the event channel closed.
type eventsClosedMsg struct{}

// logsChangedMsg signals the log store changed.
type logsChangedMsg struct{}

// tickMsg is sent every second for the clock.
type tickMsg time.Time

// noticeMsg carries the outcome of a command run off the update loop.
type noticeMsg struct {
	text  string
	isErr bool
}

// batchLogLoadedMsg carries a journaled batch for the detail tab.
type batchLogLoadedMsg struct {
	ID      string
	Events  []coordinator.Event
	Summary store.BatchSummary
	Err     error
}
