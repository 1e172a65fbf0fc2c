// Package suite tracks the run state of a single named test suite: its
// pass/fail counters and the Idle → Running → Completed lifecycle.
package suite

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrAlreadyRunning is returned by Start when the suite is mid-run.
	ErrAlreadyRunning = errors.New("suite already running")

	// ErrInvalidOutcome is returned when counts are negative or do not add up.
	ErrInvalidOutcome = errors.New("invalid outcome")

	// ErrStaleHandle is returned when completing a run that a newer run
	// (or a reseed) has superseded.
	ErrStaleHandle = errors.New("stale run handle")
)

// Status is the lifecycle state of a suite.
type Status int

const (
	StatusIdle      Status = iota // Seeded, never run (or reseeded)
	StatusRunning                 // A run is in flight
	StatusCompleted               // The last run reported completion
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Counts is a passed/failed/total triple.
type Counts struct {
	Passed int `json:"passed" toml:"passed"`
	Failed int `json:"failed" toml:"failed"`
	Total  int `json:"total" toml:"total"`
}

// Validate reports whether the counts are usable as a seed: non-negative and
// total >= passed + failed (pending tests allowed).
func (c Counts) Validate() error {
	if c.Passed < 0 || c.Failed < 0 || c.Total < 0 {
		return fmt.Errorf("%w: negative count (passed=%d failed=%d total=%d)", ErrInvalidOutcome, c.Passed, c.Failed, c.Total)
	}
	if c.Total < c.Passed+c.Failed {
		return fmt.Errorf("%w: total %d < passed %d + failed %d", ErrInvalidOutcome, c.Total, c.Passed, c.Failed)
	}
	return nil
}

// Outcome is the result of one completed run. A TimedOut outcome carries no
// counts; the suite keeps its previous counters.
type Outcome struct {
	Counts
	TimedOut bool `json:"timed_out,omitempty"`
}

// Validate checks a reported outcome. Completed runs must account for every
// test, so total must equal passed + failed.
func (o Outcome) Validate() error {
	if o.TimedOut {
		return nil
	}
	if err := o.Counts.Validate(); err != nil {
		return err
	}
	if o.Total != o.Passed+o.Failed {
		return fmt.Errorf("%w: total %d != passed %d + failed %d", ErrInvalidOutcome, o.Total, o.Passed, o.Failed)
	}
	return nil
}

// Handle identifies one in-flight run of a suite.
type Handle struct {
	Suite string
	Gen   uint64
}

// IsZero reports whether h was never issued by Start.
func (h Handle) IsZero() bool { return h.Gen == 0 }

// Result is a point-in-time snapshot of a suite.
type Result struct {
	Name   string `json:"name"`
	Counts `json:"counts"`
	Status Status `json:"status"`

	TimedOut     bool          `json:"timed_out,omitempty"`
	Runs         int           `json:"runs"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	FinishedAt   time.Time     `json:"finished_at,omitempty"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
}

// SuccessRate returns round(100 * passed / total) using half-up rounding.
// A suite with no tests has a success rate of 0.
func (r Result) SuccessRate() int {
	return Rate(r.Passed, r.Total)
}

// Rate returns passed/total as a percentage rounded half up, or 0 when
// total is 0.
func Rate(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*passed + total) / (2 * total)
}

// Runner owns the state of one suite. All methods are safe for concurrent use;
// transitions on a single Runner are serialized.
type Runner struct {
	mu        sync.Mutex
	res       Result
	gen       uint64 // generation of the latest issued handle
	completed uint64 // generation whose completion has been applied
}

// New creates an idle Runner seeded with the given counts.
func New(name string, seed Counts) (*Runner, error) {
	if name == "" {
		return nil, errors.New("suite: name must not be empty")
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("suite: seed %s: %w", name, err)
	}
	return &Runner{res: Result{Name: name, Counts: seed, Status: StatusIdle}}, nil
}

// Name returns the suite name.
func (r *Runner) Name() string {
	return r.res.Name // immutable after New
}

// Start moves the suite to Running and returns a handle for the new run.
// Counts are left untouched until the run completes.
func (r *Runner) Start() (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.res.Status == StatusRunning {
		return Handle{}, fmt.Errorf("suite: start %s: %w", r.res.Name, ErrAlreadyRunning)
	}
	r.gen++
	r.res.Status = StatusRunning
	r.res.StartedAt = time.Now()
	r.res.FinishedAt = time.Time{}
	r.res.TimedOut = false
	return Handle{Suite: r.res.Name, Gen: r.gen}, nil
}

// Complete finishes the run identified by h. A nil outcome only flips the
// status; a non-nil outcome replaces the counters. It reports whether the
// completion was applied: completing the same handle twice returns false and
// no error. A handle superseded by a newer run fails with ErrStaleHandle.
func (r *Runner) Complete(h Handle, o *Outcome) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.Suite != r.res.Name || h.IsZero() || h.Gen != r.gen {
		return false, fmt.Errorf("suite: complete %s (run %d): %w", r.res.Name, h.Gen, ErrStaleHandle)
	}
	if r.completed == h.Gen {
		return false, nil
	}
	if o != nil {
		if err := o.Validate(); err != nil {
			return false, fmt.Errorf("suite: complete %s: %w", r.res.Name, err)
		}
	}

	now := time.Now()
	r.completed = h.Gen
	r.res.Status = StatusCompleted
	r.res.Runs++
	r.res.FinishedAt = now
	r.res.LastDuration = now.Sub(r.res.StartedAt)
	if o != nil {
		r.res.TimedOut = o.TimedOut
		if !o.TimedOut {
			r.res.Counts = o.Counts
		}
	}
	return true, nil
}

// Reseed resets the suite to Idle with new counts. Any in-flight handle
// becomes stale.
func (r *Runner) Reseed(c Counts) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("suite: reseed %s: %w", r.Name(), err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.completed = r.gen
	r.res = Result{Name: r.res.Name, Counts: c, Status: StatusIdle}
	return nil
}

// SuccessRate returns the current success rate in percent.
func (r *Runner) SuccessRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Rate(r.res.Passed, r.res.Total)
}

// Snapshot returns a copy of the current state.
func (r *Runner) Snapshot() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.res
}
