package coordinator

import (
	"sync"
	"sync/atomic"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/suite"
)

// Batch is the caller's handle on one RunAll invocation.
type Batch struct {
	ID      string
	Suites  []string                // every suite registered when the batch started
	Handles map[string]suite.Handle // runs started by this batch
	Skipped []string                // suites already mid-run, not tracked by the batch

	c         *Coordinator
	done      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

// Done is closed when the batch completes or is cancelled.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Cancel stops aggregate tracking for this batch. It never stops the
// underlying suite runs. Returns false if the batch already finished.
func (b *Batch) Cancel() bool {
	return b.c.cancelSession(b.ID)
}

// Cancelled reports whether the batch ended by cancellation.
func (b *Batch) Cancelled() bool {
	return b.cancelled.Load()
}

func (b *Batch) finish(cancelled bool) {
	b.once.Do(func() {
		b.cancelled.Store(cancelled)
		close(b.done)
	})
}
