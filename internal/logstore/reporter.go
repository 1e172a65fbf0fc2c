package logstore

import "sync/atomic"

// Reporter is the entry point for log-producing collaborators. It forwards
// drafts to a Store while monitoring is active and drops them while paused.
type Reporter struct {
	store  *Store
	paused atomic.Bool
}

// NewReporter creates a Reporter that starts with monitoring active.
func NewReporter(store *Store) *Reporter {
	return &Reporter{store: store}
}

// Report appends d to the store. It returns the new id, or false when
// monitoring is paused and the draft was dropped.
func (r *Reporter) Report(d Draft) (int, bool) {
	if r.paused.Load() {
		return 0, false
	}
	return r.store.Append(d), true
}

// Error reports an error entry for component.
func (r *Reporter) Error(component, message, stack string) {
	r.Report(Draft{Level: LevelError, Component: component, Message: message, Stack: stack})
}

// Warn reports a warning entry for component.
func (r *Reporter) Warn(component, message string) {
	r.Report(Draft{Level: LevelWarning, Component: component, Message: message})
}

// Info reports an informational entry for component.
func (r *Reporter) Info(component, message string) {
	r.Report(Draft{Level: LevelInfo, Component: component, Message: message})
}

// Pause stops forwarding drafts.
func (r *Reporter) Pause() { r.paused.Store(true) }

// Resume restarts forwarding drafts.
func (r *Reporter) Resume() { r.paused.Store(false) }

// Toggle flips the monitoring state and returns the new value.
func (r *Reporter) Toggle() bool {
	for {
		old := r.paused.Load()
		if r.paused.CompareAndSwap(old, !old) {
			return old // was paused → now monitoring
		}
	}
}

// Monitoring reports whether drafts are currently forwarded.
func (r *Reporter) Monitoring() bool { return !r.paused.Load() }

// Store returns the underlying store.
func (r *Reporter) Store() *Store { return r.store }
