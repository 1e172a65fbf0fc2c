// Package session wires one dashboard session together: the log store, the
// suite runners, the coordinator and the dispatcher that executes runs. A
// Session owns all of that state; nothing in testdeck is process-global.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/config"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/executor"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// Options configures New.
type Options struct {
	// Events receives coordinator events. The caller must drain it; nil
	// disables events.
	Events chan<- coordinator.Event

	// Executor runs suites. Nil uses a simulated executor with the
	// configured per-suite durations.
	Executor executor.Executor

	// Timeout overrides executor.timeout_seconds when > 0.
	Timeout time.Duration
}

// Session is one dashboard session.
type Session struct {
	Project    string
	Logs       *logstore.Store
	Reporter   *logstore.Reporter
	Coord      *coordinator.Coordinator
	Thresholds metrics.Thresholds

	suites       []config.SuiteConfig
	alerts       map[string]time.Duration
	defaultAlert time.Duration
	dispatch     *executor.Dispatcher
}

// New builds a session from cfg. ctx bounds every run the session launches.
// Seed log entries are recorded before New returns.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: invalid config: %w", err)
	}

	runners := make([]*suite.Runner, 0, len(cfg.Suites))
	alerts := make(map[string]time.Duration)
	durations := make(map[string]time.Duration)
	for _, sc := range cfg.Suites {
		r, err := suite.New(sc.Name, sc.Counts())
		if err != nil {
			return nil, fmt.Errorf("session: suite %s: %w", sc.Name, err)
		}
		runners = append(runners, r)
		if sc.AlertSeconds > 0 {
			alerts[sc.Name] = time.Duration(sc.AlertSeconds * float64(time.Second))
		}
		if d := sc.Duration(); d > 0 {
			durations[sc.Name] = d
		}
	}

	coord, err := coordinator.New(runners, opts.Events)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	logs := logstore.New()
	if err := seedLogs(logs, cfg.Logs); err != nil {
		return nil, err
	}

	s := &Session{
		Project:      cfg.Project.Name,
		Logs:         logs,
		Reporter:     logstore.NewReporter(logs),
		Coord:        coord,
		Thresholds:   metrics.Thresholds{High: cfg.Thresholds.High, Medium: cfg.Thresholds.Medium},
		suites:       append([]config.SuiteConfig(nil), cfg.Suites...),
		alerts:       alerts,
		defaultAlert: cfg.Thresholds.PerformanceAlert(),
	}

	exec := opts.Executor
	if exec == nil {
		exec = &executor.Simulated{Default: executor.DefaultDuration, Durations: durations}
	}
	timeout := cfg.Executor.Timeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	s.dispatch = executor.NewDispatcher(ctx, coord, exec, s.Reporter, executor.Options{
		Timeout:         timeout,
		AlertThresholds: alerts,
		DefaultAlert:    s.defaultAlert,
		Parallelism:     cfg.Executor.Parallelism,
	})
	return s, nil
}

func seedLogs(logs *logstore.Store, seeds []config.LogConfig) error {
	for i, l := range seeds {
		level, err := logstore.ParseLevel(l.Level)
		if err != nil {
			return fmt.Errorf("session: logs[%d]: %w", i, err)
		}
		id := logs.Append(logstore.Draft{
			Level:     level,
			Message:   l.Message,
			Component: l.Component,
			Stack:     l.Stack,
		})
		if l.Resolved {
			logs.Resolve(id)
		}
	}
	return nil
}

// RunSuite starts one suite in the background.
func (s *Session) RunSuite(name string) error { return s.dispatch.RunSuite(name) }

// RunAll starts every suite as one batch.
func (s *Session) RunAll() (*coordinator.Batch, error) { return s.dispatch.RunAll() }

// CancelAll stops tracking the active batch.
func (s *Session) CancelAll() bool { return s.dispatch.CancelAll() }

// Resolve marks a log entry resolved.
func (s *Session) Resolve(id int) { s.Logs.Resolve(id) }

// Clear removes every log entry and returns how many were removed.
func (s *Session) Clear() int { return s.Logs.Clear() }

// ToggleMonitoring pauses or resumes diagnostic reporting and returns
// whether monitoring is now active.
func (s *Session) ToggleMonitoring() bool { return s.Reporter.Toggle() }

// Monitoring reports whether diagnostic reporting is active.
func (s *Session) Monitoring() bool { return s.Reporter.Monitoring() }

// Wait blocks until every launched run has reported.
func (s *Session) Wait() { s.dispatch.Wait() }

// Suites returns the configured suites in registration order.
func (s *Session) Suites() []config.SuiteConfig {
	return append([]config.SuiteConfig(nil), s.suites...)
}

// Suite returns the configuration of the named suite.
func (s *Session) Suite(name string) (config.SuiteConfig, bool) {
	for _, sc := range s.suites {
		if sc.Name == name {
			return sc, true
		}
	}
	return config.SuiteConfig{}, false
}

// AlertThreshold returns the slow-run threshold for the named suite; 0 means
// alerts are disabled for it.
func (s *Session) AlertThreshold(name string) time.Duration {
	if d, ok := s.alerts[name]; ok {
		return d
	}
	return s.defaultAlert
}

// Views projects every suite's current state into rate, tier and alert.
func (s *Session) Views() []metrics.SuiteView {
	results := s.Coord.Snapshot()
	out := make([]metrics.SuiteView, len(results))
	for i, r := range results {
		out[i] = metrics.Project(r, s.Thresholds, s.AlertThreshold(r.Name))
	}
	return out
}

// Recent returns the most recent completed runs, newest first.
func (s *Session) Recent() []coordinator.RunRecord { return s.Coord.Recent() }

// Active returns the running batch, if any.
func (s *Session) Active() (coordinator.SessionInfo, bool) { return s.Coord.Active() }

// LogEntries returns the log entries matching f in insertion order.
func (s *Session) LogEntries(f logstore.Filter) []logstore.Entry { return s.Logs.Entries(f) }

// ActiveCounts returns the unresolved error and warning counts.
func (s *Session) ActiveCounts() (errors, warnings int) {
	return s.Logs.ActiveErrorCount(), s.Logs.ActiveWarningCount()
}
