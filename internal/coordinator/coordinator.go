// Package coordinator orchestrates suite runs: single-suite starts, the
// run-all batch that fans out over every registered suite, and completion
// bookkeeping that fires one AllCompleted event per batch.
package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

var (
	// ErrUnknownSuite is returned for a suite name that is not registered.
	ErrUnknownSuite = errors.New("unknown suite")

	// ErrDuplicateSuite is returned by New when two runners share a name.
	ErrDuplicateSuite = errors.New("duplicate suite")
)

// DefaultRecentLimit is how many completed runs Recent keeps.
const DefaultRecentLimit = 20

// RunRecord describes one completed suite run, newest first in Recent.
type RunRecord struct {
	Suite      string
	SessionID  string
	Passed     int
	Failed     int
	Total      int
	TimedOut   bool
	Duration   time.Duration
	FinishedAt time.Time
}

// OK reports whether the run finished without failures or a timeout.
func (r RunRecord) OK() bool {
	return !r.TimedOut && r.Failed == 0
}

// SessionInfo is a read-only view of the active run-all batch.
type SessionInfo struct {
	ID        string
	Suites    []string
	Pending   []string
	StartedAt time.Time
}

// session is the bookkeeping for one run-all batch. It exists only while
// pending is non-empty.
type session struct {
	id        string
	suites    []string
	pending   map[string]bool
	handles   map[string]suite.Handle
	startedAt time.Time
	batch     *Batch
}

// Coordinator drives the registered suites. It holds non-owning references
// to the runners; their lifecycle belongs to the caller.
type Coordinator struct {
	order   []string
	runners map[string]*suite.Runner
	events  chan<- Event

	// mu protects current, session and recent.
	mu      sync.Mutex
	current map[string]suite.Handle // latest handle per suite
	session *session
	recent  []RunRecord
	limit   int

	// emitMu keeps events in mutation order without holding mu while sending.
	emitMu sync.Mutex
}

// New creates a Coordinator over runners. Events are sent on events, which
// the caller must drain; a nil channel disables events.
func New(runners []*suite.Runner, events chan<- Event) (*Coordinator, error) {
	c := &Coordinator{
		runners: make(map[string]*suite.Runner, len(runners)),
		current: make(map[string]suite.Handle, len(runners)),
		events:  events,
		limit:   DefaultRecentLimit,
	}
	for _, r := range runners {
		name := r.Name()
		if _, dup := c.runners[name]; dup {
			return nil, fmt.Errorf("coordinator: register %s: %w", name, ErrDuplicateSuite)
		}
		c.runners[name] = r
		c.order = append(c.order, name)
	}
	return c, nil
}

// Names returns the registered suite names in registration order.
func (c *Coordinator) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Runner returns the runner registered under name.
func (c *Coordinator) Runner(name string) (*suite.Runner, bool) {
	r, ok := c.runners[name]
	return r, ok
}

// Snapshot returns every suite's current state in registration order.
func (c *Coordinator) Snapshot() []suite.Result {
	out := make([]suite.Result, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.runners[name].Snapshot())
	}
	return out
}

// RunSuite starts the named suite outside of any batch.
func (c *Coordinator) RunSuite(name string) (suite.Handle, error) {
	r, ok := c.runners[name]
	if !ok {
		return suite.Handle{}, fmt.Errorf("coordinator: run %q: %w", name, ErrUnknownSuite)
	}

	c.mu.Lock()
	h, err := r.Start()
	if err != nil {
		c.mu.Unlock()
		return suite.Handle{}, fmt.Errorf("coordinator: run %s: %w", name, err)
	}
	c.current[name] = h
	ev := Event{Kind: EventSuiteStarted, Timestamp: time.Now(), Suite: name, Run: h.Gen}
	c.unlockAndEmit(ev)
	return h, nil
}

// RunAll starts every registered suite as one batch. Suites already mid-run
// from an independent RunSuite are left alone and do not hold the batch open.
// Fails with suite.ErrAlreadyRunning while another batch is active.
func (c *Coordinator) RunAll() (*Batch, error) {
	c.mu.Lock()
	if c.session != nil {
		id := c.session.id
		c.mu.Unlock()
		return nil, fmt.Errorf("coordinator: run all (batch %s active): %w", id, suite.ErrAlreadyRunning)
	}

	now := time.Now()
	s := &session{
		id:        uuid.NewString(),
		suites:    c.Names(),
		pending:   make(map[string]bool, len(c.order)),
		handles:   make(map[string]suite.Handle, len(c.order)),
		startedAt: now,
	}
	b := &Batch{ID: s.id, Suites: s.suites, Handles: s.handles, c: c, done: make(chan struct{})}
	s.batch = b

	var started []Event
	for _, name := range c.order {
		h, err := c.runners[name].Start()
		if err != nil {
			b.Skipped = append(b.Skipped, name)
			continue
		}
		c.current[name] = h
		s.pending[name] = true
		s.handles[name] = h
		started = append(started, Event{Kind: EventSuiteStarted, Timestamp: now, Suite: name, Run: h.Gen, SessionID: s.id})
	}

	evs := make([]Event, 0, len(started)+2)
	evs = append(evs, Event{Kind: EventRunAllStarted, Timestamp: now, SessionID: s.id, Suites: s.suites, Skipped: b.Skipped})
	evs = append(evs, started...)
	if len(s.pending) == 0 {
		evs = append(evs, Event{Kind: EventAllCompleted, Timestamp: now, SessionID: s.id, Suites: s.suites})
		b.finish(false)
	} else {
		c.session = s
	}
	c.unlockAndEmit(evs...)
	return b, nil
}

// OnSuiteCompleted completes the latest run of the named suite. A nil outcome
// only flips the suite to Completed.
func (c *Coordinator) OnSuiteCompleted(name string, o *suite.Outcome) error {
	if _, ok := c.runners[name]; !ok {
		return fmt.Errorf("coordinator: complete %q: %w", name, ErrUnknownSuite)
	}
	c.mu.Lock()
	h, ok := c.current[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("coordinator: complete %s: never started: %w", name, suite.ErrStaleHandle)
	}
	return c.CompleteRun(h, o)
}

// CompleteRun completes the run identified by h. Completing the same handle
// twice is a no-op; a handle superseded by a newer run fails with
// suite.ErrStaleHandle.
func (c *Coordinator) CompleteRun(h suite.Handle, o *suite.Outcome) error {
	r, ok := c.runners[h.Suite]
	if !ok {
		return fmt.Errorf("coordinator: complete %q: %w", h.Suite, ErrUnknownSuite)
	}

	c.mu.Lock()
	applied, err := r.Complete(h, o)
	if err != nil || !applied {
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("coordinator: complete %s: %w", h.Suite, err)
		}
		return nil
	}

	res := r.Snapshot()
	now := time.Now()
	ev := Event{Kind: EventSuiteCompleted, Timestamp: now, Suite: h.Suite, Run: h.Gen, Result: &res, Duration: res.LastDuration}

	var done *Event
	if s := c.session; s != nil && s.pending[h.Suite] && s.handles[h.Suite] == h {
		ev.SessionID = s.id
		delete(s.pending, h.Suite)
		if len(s.pending) == 0 {
			done = &Event{Kind: EventAllCompleted, Timestamp: now, SessionID: s.id, Suites: s.suites, Duration: now.Sub(s.startedAt)}
			c.session = nil
			s.batch.finish(false)
		}
	}

	c.pushRecent(RunRecord{
		Suite:      h.Suite,
		SessionID:  ev.SessionID,
		Passed:     res.Passed,
		Failed:     res.Failed,
		Total:      res.Total,
		TimedOut:   res.TimedOut,
		Duration:   res.LastDuration,
		FinishedAt: res.FinishedAt,
	})

	if done != nil {
		c.unlockAndEmit(ev, *done)
	} else {
		c.unlockAndEmit(ev)
	}
	return nil
}

// CancelAll discards the active batch. Suites keep running; their later
// completions update the suites but no longer count toward any batch.
// Reports whether a batch was active.
func (c *Coordinator) CancelAll() bool {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return false
	}
	c.cancelLocked()
	return true
}

// cancelSession cancels the batch only if id is still the active one.
func (c *Coordinator) cancelSession(id string) bool {
	c.mu.Lock()
	if c.session == nil || c.session.id != id {
		c.mu.Unlock()
		return false
	}
	c.cancelLocked()
	return true
}

// cancelLocked must be called with mu held; it releases mu.
func (c *Coordinator) cancelLocked() {
	s := c.session
	c.session = nil
	s.batch.finish(true)
	now := time.Now()
	c.unlockAndEmit(Event{
		Kind:      EventRunAllCancelled,
		Timestamp: now,
		SessionID: s.id,
		Suites:    s.suites,
		Duration:  now.Sub(s.startedAt),
	})
}

// Active returns the running batch, if any.
func (c *Coordinator) Active() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s == nil {
		return SessionInfo{}, false
	}
	info := SessionInfo{ID: s.id, Suites: append([]string(nil), s.suites...), StartedAt: s.startedAt}
	for _, name := range s.suites {
		if s.pending[name] {
			info.Pending = append(info.Pending, name)
		}
	}
	return info, true
}

// Recent returns the most recent completed runs, newest first.
func (c *Coordinator) Recent() []RunRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RunRecord, len(c.recent))
	for i, r := range c.recent {
		out[len(c.recent)-1-i] = r
	}
	return out
}

func (c *Coordinator) pushRecent(r RunRecord) {
	c.recent = append(c.recent, r)
	if over := len(c.recent) - c.limit; over > 0 {
		c.recent = append(c.recent[:0:0], c.recent[over:]...)
	}
}

// unlockAndEmit releases mu and sends evs in order. Holding emitMu across
// the hand-off keeps event order equal to mutation order.
func (c *Coordinator) unlockAndEmit(evs ...Event) {
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()
	if c.events == nil {
		return
	}
	for _, ev := range evs {
		c.events <- ev
	}
}
