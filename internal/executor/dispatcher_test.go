package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/logstore"
	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

func newTestCoordinator(t *testing.T) (*coordinator.Coordinator, chan coordinator.Event) {
	t.Helper()
	var runners []*suite.Runner
	for _, name := range []string{"unit", "integration", "e2e"} {
		r, err := suite.New(name, suite.Counts{Passed: 9, Failed: 1, Total: 10})
		if err != nil {
			t.Fatal(err)
		}
		runners = append(runners, r)
	}
	events := make(chan coordinator.Event, 256)
	c, err := coordinator.New(runners, events)
	if err != nil {
		t.Fatal(err)
	}
	return c, events
}

func waitDone(t *testing.T, b *coordinator.Batch) {
	t.Helper()
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish")
	}
}

func messages(s *logstore.Store, f logstore.Filter) []string {
	var out []string
	for e := range s.Query(f) {
		out = append(out, e.Component+": "+e.Message)
	}
	return out
}

func TestSimulated_Execute(t *testing.T) {
	sim := &Simulated{
		Durations: map[string]time.Duration{"unit": time.Millisecond},
		Outcomes:  map[string]suite.Outcome{"unit": {Counts: suite.Counts{Passed: 5, Failed: 0, Total: 5}}},
	}
	o, err := sim.Execute(context.Background(), "unit")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if o == nil || o.Total != 5 {
		t.Errorf("outcome = %+v, want scripted 5/5", o)
	}

	o, err = sim.Execute(context.Background(), "e2e")
	if err != nil || o != nil {
		t.Errorf("unscripted suite = (%+v, %v), want (nil, nil)", o, err)
	}
}

func TestSimulated_Cancelled(t *testing.T) {
	sim := &Simulated{Default: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Execute(ctx, "unit"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	zero := &Simulated{}
	if _, err := zero.Execute(ctx, "unit"); !errors.Is(err, context.Canceled) {
		t.Errorf("zero-duration error = %v, want context.Canceled", err)
	}
}

func TestDispatcher_RunAll(t *testing.T) {
	c, events := newTestCoordinator(t)
	store := logstore.New()
	sim := &Simulated{
		Durations: map[string]time.Duration{"unit": 5 * time.Millisecond, "integration": time.Millisecond, "e2e": 10 * time.Millisecond},
		Outcomes:  map[string]suite.Outcome{"e2e": {Counts: suite.Counts{Passed: 14, Failed: 2, Total: 16}}},
	}
	d := NewDispatcher(context.Background(), c, sim, logstore.NewReporter(store), Options{})

	b, err := d.RunAll()
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	waitDone(t, b)
	d.Wait()

	all := 0
	close(events)
	for ev := range events {
		if ev.Kind == coordinator.EventAllCompleted {
			all++
		}
	}
	if all != 1 {
		t.Errorf("AllCompleted = %d, want 1", all)
	}

	for _, r := range c.Snapshot() {
		if r.Status != suite.StatusCompleted {
			t.Errorf("%s status = %v, want completed", r.Name, r.Status)
		}
	}
	e2e, _ := c.Runner("e2e")
	if got := e2e.Snapshot().Counts; got != (suite.Counts{Passed: 14, Failed: 2, Total: 16}) {
		t.Errorf("e2e counts = %+v, want scripted outcome", got)
	}
	warns := messages(store, logstore.ByLevel(logstore.LevelWarning))
	if len(warns) != 1 || !strings.Contains(warns[0], "2 of 16 tests failed") {
		t.Errorf("warnings = %v, want one failure warning", warns)
	}
}

func TestDispatcher_RunSuite(t *testing.T) {
	c, _ := newTestCoordinator(t)
	d := NewDispatcher(context.Background(), c, &Simulated{}, nil, Options{})
	if err := d.RunSuite("unit"); err != nil {
		t.Fatalf("RunSuite: %v", err)
	}
	d.Wait()
	r, _ := c.Runner("unit")
	if r.Snapshot().Status != suite.StatusCompleted {
		t.Error("unit should be completed")
	}
	if err := d.RunSuite("nope"); !errors.Is(err, coordinator.ErrUnknownSuite) {
		t.Errorf("unknown suite error = %v", err)
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	c, _ := newTestCoordinator(t)
	store := logstore.New()
	sim := &Simulated{Default: time.Hour}
	d := NewDispatcher(context.Background(), c, sim, logstore.NewReporter(store), Options{Timeout: 10 * time.Millisecond})

	if err := d.RunSuite("e2e"); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	r, _ := c.Runner("e2e")
	got := r.Snapshot()
	if got.Status != suite.StatusCompleted || !got.TimedOut {
		t.Errorf("after timeout: status=%v timedOut=%v, want completed/true", got.Status, got.TimedOut)
	}
	if got.Counts != (suite.Counts{Passed: 9, Failed: 1, Total: 10}) {
		t.Errorf("timeout changed counts: %+v", got.Counts)
	}
	warns := messages(store, logstore.ByLevel(logstore.LevelWarning))
	if len(warns) != 1 || !strings.Contains(warns[0], "timed out") {
		t.Errorf("warnings = %v", warns)
	}
}

func TestDispatcher_PerformanceAlert(t *testing.T) {
	c, _ := newTestCoordinator(t)
	store := logstore.New()
	sim := &Simulated{Durations: map[string]time.Duration{"e2e": 20 * time.Millisecond, "unit": 20 * time.Millisecond}}
	d := NewDispatcher(context.Background(), c, sim, logstore.NewReporter(store), Options{
		AlertThresholds: map[string]time.Duration{"e2e": 5 * time.Millisecond},
	})

	if err := d.RunSuite("e2e"); err != nil {
		t.Fatal(err)
	}
	if err := d.RunSuite("unit"); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	warns := messages(store, logstore.ByLevel(logstore.LevelWarning))
	if len(warns) != 1 || !strings.HasPrefix(warns[0], "performance: Suite e2e") {
		t.Errorf("warnings = %v, want one performance alert for e2e only", warns)
	}
}

func TestDispatcher_ExecutorError(t *testing.T) {
	c, _ := newTestCoordinator(t)
	store := logstore.New()
	failing := ExecutorFunc(func(ctx context.Context, name string) (*suite.Outcome, error) {
		return nil, errors.New("runner crashed")
	})
	d := NewDispatcher(context.Background(), c, failing, logstore.NewReporter(store), Options{})
	if err := d.RunSuite("integration"); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	r, _ := c.Runner("integration")
	if r.Snapshot().Status != suite.StatusCompleted {
		t.Error("suite must not stay Running after an executor error")
	}
	if store.ActiveErrorCount() != 1 {
		t.Errorf("ActiveErrorCount = %d, want 1", store.ActiveErrorCount())
	}
}

func TestDispatcher_InvalidOutcome(t *testing.T) {
	c, _ := newTestCoordinator(t)
	store := logstore.New()
	bad := ExecutorFunc(func(ctx context.Context, name string) (*suite.Outcome, error) {
		return &suite.Outcome{Counts: suite.Counts{Passed: 10, Failed: 10, Total: 1}}, nil
	})
	d := NewDispatcher(context.Background(), c, bad, logstore.NewReporter(store), Options{})
	if err := d.RunSuite("unit"); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	r, _ := c.Runner("unit")
	got := r.Snapshot()
	if got.Status != suite.StatusCompleted {
		t.Errorf("status = %v, want completed", got.Status)
	}
	if got.Counts != (suite.Counts{Passed: 9, Failed: 1, Total: 10}) {
		t.Errorf("invalid outcome must not be applied or clamped: %+v", got.Counts)
	}
	if store.ActiveErrorCount() != 1 {
		t.Errorf("ActiveErrorCount = %d, want 1", store.ActiveErrorCount())
	}
}

func TestDispatcher_ShutdownReleasesSuites(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(ctx, c, &Simulated{Default: time.Hour}, nil, Options{})
	b, err := d.RunAll()
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	waitDone(t, b)
	d.Wait()
	for _, r := range c.Snapshot() {
		if r.Status != suite.StatusCompleted {
			t.Errorf("%s status = %v after shutdown", r.Name, r.Status)
		}
	}
}

func TestDispatcher_CancelAllKeepsRunsGoing(t *testing.T) {
	c, events := newTestCoordinator(t)
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	gated := ExecutorFunc(func(ctx context.Context, name string) (*suite.Outcome, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return nil, nil
	})
	d := NewDispatcher(context.Background(), c, gated, nil, Options{})
	b, err := d.RunAll()
	if err != nil {
		t.Fatal(err)
	}
	if !d.CancelAll() {
		t.Fatal("CancelAll should report an active batch")
	}
	waitDone(t, b)
	if !b.Cancelled() {
		t.Error("batch should be cancelled")
	}
	close(release)
	d.Wait()

	close(events)
	for ev := range events {
		if ev.Kind == coordinator.EventAllCompleted {
			t.Error("cancelled batch must not fire AllCompleted")
		}
	}
	for _, r := range c.Snapshot() {
		if r.Status != suite.StatusCompleted {
			t.Errorf("%s status = %v, want completed after late report", r.Name, r.Status)
		}
	}
	if calls != 3 {
		t.Errorf("executor calls = %d, want 3", calls)
	}
}

func TestDispatcher_TimeoutWithUnresponsiveExecutor(t *testing.T) {
	c, _ := newTestCoordinator(t)
	release := make(chan struct{})
	defer close(release)
	stuck := ExecutorFunc(func(_ context.Context, _ string) (*suite.Outcome, error) {
		<-release
		return &suite.Outcome{Counts: suite.Counts{Passed: 1, Total: 1}}, nil
	})
	d := NewDispatcher(context.Background(), c, stuck, nil, Options{Timeout: 20 * time.Millisecond})

	if err := d.RunSuite("e2e"); err != nil {
		t.Fatal(err)
	}
	finished := make(chan struct{})
	go func() {
		d.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher waited on an executor that ignores its context")
	}

	r, _ := c.Runner("e2e")
	got := r.Snapshot()
	if got.Status != suite.StatusCompleted || !got.TimedOut {
		t.Errorf("status=%v timedOut=%v, want completed/true", got.Status, got.TimedOut)
	}
	if got.Counts != (suite.Counts{Passed: 9, Failed: 1, Total: 10}) {
		t.Errorf("late result applied: %+v", got.Counts)
	}
}

func TestDispatcher_Parallelism(t *testing.T) {
	tests := []struct {
		name        string
		parallelism int
		want        int
	}{
		{name: "unbounded", parallelism: 0, want: 3},
		{name: "one at a time", parallelism: 1, want: 1},
		{name: "two at a time", parallelism: 2, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator(t)
			var mu sync.Mutex
			active, peak := 0, 0
			tracked := ExecutorFunc(func(_ context.Context, _ string) (*suite.Outcome, error) {
				mu.Lock()
				active++
				peak = max(peak, active)
				mu.Unlock()
				time.Sleep(20 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil, nil
			})
			d := NewDispatcher(context.Background(), c, tracked, nil, Options{Parallelism: tt.parallelism})
			b, err := d.RunAll()
			if err != nil {
				t.Fatal(err)
			}
			waitDone(t, b)
			d.Wait()
			if peak != tt.want {
				t.Errorf("peak concurrent runs = %d, want %d", peak, tt.want)
			}
		})
	}
}

func TestDispatcher_RunAllExecutorErrors(t *testing.T) {
	c, _ := newTestCoordinator(t)
	store := logstore.New()
	crashing := ExecutorFunc(func(_ context.Context, name string) (*suite.Outcome, error) {
		if name == "integration" {
			return nil, errors.New("runner crashed")
		}
		return nil, nil
	})
	d := NewDispatcher(context.Background(), c, crashing, logstore.NewReporter(store), Options{})
	b, err := d.RunAll()
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, b)
	d.Wait()

	errs := messages(store, logstore.ByLevel(logstore.LevelError))
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want the suite error and the batch summary", errs)
	}
	var summary string
	for _, m := range errs {
		if strings.Contains(m, "Batch "+b.ID) {
			summary = m
		}
	}
	if !strings.Contains(summary, "integration: runner crashed") {
		t.Errorf("batch summary = %q, want the failing suite's error", summary)
	}
}
