package store

import "github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"

// batchRange is the [start, end) byte range of one batch in the JSONL file.
// start is the offset of the RunAllStarted line; end is the offset of the
// first byte after the AllCompleted or RunAllCancelled line.
type batchRange struct {
	start int64
	end   int64
}

// fileIndex maintains in-memory byte-offset bookmarks per finished batch.
// It is updated by onAppend as each event is written (or replayed) and
// provides O(1) lookup for BatchLog reads via file.ReadAt.
type fileIndex struct {
	summaries []BatchSummary           // ordered by finish time
	ranges    map[string]batchRange    // batch ID → byte range
	pending   map[string]*pendingBatch // open batches by ID

	runs    int
	failing int
}

// pendingBatch accumulates state for a batch that has not finished yet.
type pendingBatch struct {
	startOffset int64
	summary     BatchSummary
}

func newFileIndex() *fileIndex {
	return &fileIndex{
		ranges:  make(map[string]batchRange),
		pending: make(map[string]*pendingBatch),
	}
}

// onAppend updates the index when an event line has been appended.
// lineOffset is the byte offset of the first byte of the written line;
// lineLen is the total bytes written (including the trailing newline).
func (idx *fileIndex) onAppend(ev coordinator.Event, lineOffset, lineLen int64) {
	switch ev.Kind {
	case coordinator.EventRunAllStarted:
		idx.pending[ev.SessionID] = &pendingBatch{
			startOffset: lineOffset,
			summary: BatchSummary{
				ID:      ev.SessionID,
				Suites:  append([]string(nil), ev.Suites...),
				Skipped: append([]string(nil), ev.Skipped...),
				StartAt: ev.Timestamp,
			},
		}
	case coordinator.EventSuiteCompleted:
		bad := failing(ev)
		idx.runs++
		if bad {
			idx.failing++
		}
		if p := idx.pending[ev.SessionID]; ev.SessionID != "" && p != nil {
			p.summary.Reported++
			if bad {
				p.summary.Failing++
			}
		}
	case coordinator.EventAllCompleted, coordinator.EventRunAllCancelled:
		p := idx.pending[ev.SessionID]
		if p == nil {
			return
		}
		delete(idx.pending, ev.SessionID)
		s := p.summary
		s.Result = "completed"
		if ev.Kind == coordinator.EventRunAllCancelled {
			s.Result = "cancelled"
		}
		s.EndAt = ev.Timestamp
		s.Duration = ev.Duration
		if s.Duration == 0 && !s.StartAt.IsZero() {
			s.Duration = s.EndAt.Sub(s.StartAt)
		}
		idx.ranges[s.ID] = batchRange{
			start: p.startOffset,
			end:   lineOffset + lineLen,
		}
		idx.summaries = append(idx.summaries, s)
	}
}

func failing(ev coordinator.Event) bool {
	return ev.Result != nil && (ev.Result.TimedOut || ev.Result.Failed > 0)
}
