package tui

import (
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
)

// Controller issues commands on behalf of the dashboard. The model calls it
// from tea.Cmd goroutines only, never from Update, because the model is also
// the consumer of the coordinator's event channel.
type Controller interface {
	RunSuite(name string) error
	RunAll() (*coordinator.Batch, error)
	CancelAll() bool
	Resolve(id int)
	Clear() int
	ToggleMonitoring() bool
}

// StateSource supplies the read-only projections the dashboard renders.
type StateSource interface {
	Views() []metrics.SuiteView
	Recent() []coordinator.RunRecord
	Active() (coordinator.SessionInfo, bool)
	LogEntries(f logstore.Filter) []logstore.Entry
	ActiveCounts() (errors, warnings int)
	Monitoring() bool
}

// Deck is everything the dashboard needs from a session. *session.Session
// implements it.
type Deck interface {
	Controller
	StateSource
}
