package tui

// FocusTarget identifies which panel currently holds keyboard focus.
type FocusTarget int

const (
	FocusSuites FocusTarget = iota // Left sidebar: suites with rate bars
	FocusRuns                      // Left sidebar: recent runs
	FocusMain                      // Right top: activity / detail
	FocusLogs                      // Right bottom: diagnostic log entries
)

// Next returns the next focus target in forward tab order.
func (f FocusTarget) Next() FocusTarget {
	return (f + 1) % 4
}

// Prev returns the previous focus target in reverse tab order.
func (f FocusTarget) Prev() FocusTarget {
	return (f + 3) % 4 // equivalent to (f - 1 + 4) % 4
}

// String returns the human-readable name of the focus target.
func (f FocusTarget) String() string {
	switch f {
	case FocusSuites:
		return "suites"
	case FocusRuns:
		return "runs"
	case FocusMain:
		return "main"
	case FocusLogs:
		return "logs"
	default:
		return "unknown"
	}
}

// DeckState summarises what the dashboard is doing right now.
type DeckState int

const (
	StateIdle       DeckState = iota // No suite running
	StateRunning                     // Single-suite runs in flight
	StateRunningAll                  // A run-all batch is active
)

// Label returns a short uppercase label for the state.
func (s DeckState) Label() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateRunningAll:
		return "RUN ALL"
	default:
		return "UNKNOWN"
	}
}

// Symbol returns a single-character symbol representing the state.
func (s DeckState) Symbol() string {
	switch s {
	case StateIdle:
		return "✓"
	case StateRunning:
		return "●"
	case StateRunningAll:
		return "◆"
	default:
		return "?"
	}
}
