package coordinator

import (
	"fmt"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// EventKind identifies the type of a coordinator event.
type EventKind int

const (
	EventSuiteStarted    EventKind = iota // A suite run started
	EventSuiteCompleted                   // A suite run reported completion
	EventRunAllStarted                    // A run-all batch started
	EventAllCompleted                     // Every suite in the batch reported
	EventRunAllCancelled                  // The batch was cancelled
)

// String returns a short name for the kind.
func (k EventKind) String() string {
	switch k {
	case EventSuiteStarted:
		return "suite_started"
	case EventSuiteCompleted:
		return "suite_completed"
	case EventRunAllStarted:
		return "run_all_started"
	case EventAllCompleted:
		return "all_completed"
	case EventRunAllCancelled:
		return "run_all_cancelled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its String name.
func (k EventKind) MarshalText() ([]byte, error) {
	if k < EventSuiteStarted || k > EventRunAllCancelled {
		return nil, fmt.Errorf("coordinator: marshal event kind %d: unknown", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *EventKind) UnmarshalText(b []byte) error {
	for c := EventSuiteStarted; c <= EventRunAllCancelled; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("coordinator: unknown event kind %q", b)
}

// Event is emitted on the coordinator's events channel after each state
// transition. Consumers (TUI, stdout printer, journal, metrics exporter)
// read only the fields relevant to Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Suite fields (SuiteStarted / SuiteCompleted)
	Suite  string        `json:"suite,omitempty"`
	Run    uint64        `json:"run,omitempty"`
	Result *suite.Result `json:"result,omitempty"`

	// Batch fields. SessionID is also set on suite events that belong to the
	// active run-all batch.
	SessionID string        `json:"session_id,omitempty"`
	Suites    []string      `json:"suites,omitempty"`
	Skipped   []string      `json:"skipped,omitempty"` // suites already mid-run when the batch started
	Duration  time.Duration `json:"duration,omitempty"`
}
