// Package executor stands in for the test-execution collaborator: it launches
// suite runs on goroutines and reports each outcome back to the coordinator
// exactly once per start.
package executor

import (
	"context"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// DefaultDuration is how long a simulated run takes when no per-suite
// duration is configured.
const DefaultDuration = 3 * time.Second

// Executor runs one suite. A nil outcome leaves the suite's counts unchanged.
// Implementations should return once ctx is done; a result that arrives
// after the run timed out is dropped.
type Executor interface {
	Execute(ctx context.Context, name string) (*suite.Outcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string) (*suite.Outcome, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, name string) (*suite.Outcome, error) {
	return f(ctx, name)
}

// Simulated waits for a fixed duration and then reports a scripted outcome,
// or nil when none is scripted.
type Simulated struct {
	Default   time.Duration
	Durations map[string]time.Duration
	Outcomes  map[string]suite.Outcome
}

// Execute sleeps for the suite's duration or until ctx is done.
func (s *Simulated) Execute(ctx context.Context, name string) (*suite.Outcome, error) {
	d := s.duration(name)
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	o, ok := s.Outcomes[name]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *Simulated) duration(name string) time.Duration {
	if d, ok := s.Durations[name]; ok {
		return d
	}
	if s.Default > 0 {
		return s.Default
	}
	return 0
}
