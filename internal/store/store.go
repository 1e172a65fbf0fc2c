// Package store journals coordinator events to an append-only JSONL file and
// provides indexed read-back of past run-all batches. One journal is created
// per testdeck invocation in cmd/testdeck/wiring.go. The journal is an audit
// trail only; suite state is never restored from it.
package store

import (
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
)

// Writer persists coordinator events to durable storage.
type Writer interface {
	Append(ev coordinator.Event) error
	Close() error
}

// Reader retrieves past batch data from storage.
type Reader interface {
	Batches() ([]BatchSummary, error)
	BatchLog(id string) ([]coordinator.Event, error)
	Summary() (JournalSummary, error)
}

// Store combines Writer and Reader into a single journal handle.
type Store interface {
	Writer
	Reader
}

// BatchSummary summarises one finished run-all batch.
type BatchSummary struct {
	ID       string
	Suites   []string
	Skipped  []string
	Reported int    // suite completions counted toward the batch
	Failing  int    // of those, runs with failures or a timeout
	Result   string // "completed" or "cancelled"
	StartAt  time.Time
	EndAt    time.Time
	Duration time.Duration
}

// JournalSummary summarises one journal file.
type JournalSummary struct {
	JournalID string
	StartedAt time.Time
	Batches   int
	Runs      int // every suite completion, inside a batch or not
	Failing   int
	LastBatch string
}
