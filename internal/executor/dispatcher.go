package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/metrics"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// component tags used on log entries reported by the dispatcher.
const (
	componentExecutor    = "executor"
	componentPerformance = "performance"
)

// Coordinator is the subset of *coordinator.Coordinator the dispatcher drives.
type Coordinator interface {
	RunSuite(name string) (suite.Handle, error)
	RunAll() (*coordinator.Batch, error)
	CompleteRun(h suite.Handle, o *suite.Outcome) error
	CancelAll() bool
}

// Options tunes a Dispatcher.
type Options struct {
	// Timeout bounds each run; 0 disables it. A run that hits the timeout is
	// completed with a TimedOut outcome instead of staying Running.
	Timeout time.Duration

	// AlertThresholds overrides DefaultAlert per suite.
	AlertThresholds map[string]time.Duration

	// DefaultAlert is the slow-run threshold; 0 disables performance alerts.
	DefaultAlert time.Duration

	// Parallelism caps how many suites of one batch execute at once; 0 runs
	// them all concurrently. Queued suites stay Running until they start.
	Parallelism int
}

// Dispatcher starts runs through the coordinator and executes each on its
// own goroutine. It implements the dashboard's run controls.
type Dispatcher struct {
	ctx   context.Context
	coord Coordinator
	exec  Executor
	rep   *logstore.Reporter
	opts  Options

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. ctx bounds every run it launches;
// rep may be nil to discard diagnostics.
func NewDispatcher(ctx context.Context, coord Coordinator, exec Executor, rep *logstore.Reporter, opts Options) *Dispatcher {
	return &Dispatcher{ctx: ctx, coord: coord, exec: exec, rep: rep, opts: opts}
}

// RunSuite starts one suite and executes it in the background.
func (d *Dispatcher) RunSuite(name string) error {
	h, err := d.coord.RunSuite(name)
	if err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.execute(h)
	}()
	return nil
}

// RunAll starts a batch and executes every started suite concurrently.
// Suites complete independently; the returned batch's Done channel closes
// once all of them reported (or the batch is cancelled).
func (d *Dispatcher) RunAll() (*coordinator.Batch, error) {
	b, err := d.coord.RunAll()
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	if d.opts.Parallelism > 0 {
		g.SetLimit(d.opts.Parallelism)
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, h := range b.Handles {
			g.Go(func() error { return d.execute(h) })
		}
		if err := g.Wait(); err != nil {
			d.logError(componentExecutor, fmt.Sprintf("Batch %s finished with executor errors: %v", b.ID, err))
		}
	}()
	return b, nil
}

// CancelAll stops tracking the active batch. In-flight runs continue.
func (d *Dispatcher) CancelAll() bool {
	return d.coord.CancelAll()
}

// Wait blocks until every launched run has reported.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

type result struct {
	o   *suite.Outcome
	err error
}

// await runs the executor on its own goroutine and returns its result, or
// ctx's error once ctx is done. A result that arrives after ctx is done is
// dropped.
func (d *Dispatcher) await(ctx context.Context, name string) (*suite.Outcome, error) {
	done := make(chan result, 1)
	go func() {
		o, err := d.exec.Execute(ctx, name)
		done <- result{o: o, err: err}
	}()
	select {
	case r := <-done:
		return r.o, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute runs h and reports its completion exactly once. It returns the
// executor's error, if any.
func (d *Dispatcher) execute(h suite.Handle) error {
	ctx := d.ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(d.ctx, d.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	o, err := d.await(ctx, h.Suite)
	elapsed := time.Since(start)

	var execErr error
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && d.ctx.Err() == nil:
		o = &suite.Outcome{TimedOut: true}
		d.logWarn(componentExecutor, fmt.Sprintf("Suite %s timed out after %s", h.Suite, d.opts.Timeout))
	case d.ctx.Err() != nil:
		// Shutting down: release the suite without touching its counts.
		o = nil
	default:
		d.logError(componentExecutor, fmt.Sprintf("Suite %s failed to execute: %v", h.Suite, err))
		execErr = fmt.Errorf("executor: %s: %w", h.Suite, err)
		o = nil
	}

	if cerr := d.coord.CompleteRun(h, o); cerr != nil {
		if !errors.Is(cerr, suite.ErrInvalidOutcome) {
			d.logError(componentExecutor, fmt.Sprintf("Suite %s: %v", h.Suite, cerr))
			return execErr
		}
		// Keep the suite from staying Running; the bad counts are dropped.
		d.logError(componentExecutor, fmt.Sprintf("Suite %s reported an invalid outcome: %v", h.Suite, cerr))
		o = nil
		if cerr = d.coord.CompleteRun(h, nil); cerr != nil {
			d.logError(componentExecutor, fmt.Sprintf("Suite %s: %v", h.Suite, cerr))
			return execErr
		}
	}

	if o != nil && !o.TimedOut && o.Failed > 0 {
		d.logWarn(h.Suite, fmt.Sprintf("%d of %d tests failed", o.Failed, o.Total))
	}
	if thr := d.alertThreshold(h.Suite); thr > 0 && metrics.PerformanceAlert(elapsed, thr) {
		d.logWarn(componentPerformance, fmt.Sprintf("Suite %s is taking longer than expected (%.1fs > %s)", h.Suite, elapsed.Seconds(), thr))
	}
	return execErr
}

func (d *Dispatcher) alertThreshold(name string) time.Duration {
	if thr, ok := d.opts.AlertThresholds[name]; ok {
		return thr
	}
	return d.opts.DefaultAlert
}

func (d *Dispatcher) logWarn(component, msg string) {
	if d.rep != nil {
		d.rep.Warn(component, msg)
	}
}

func (d *Dispatcher) logError(component, msg string) {
	if d.rep != nil {
		d.rep.Error(component, msg, "")
	}
}
