package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
)

// ErrNoJournal is returned by Latest when dir holds no journal files.
var ErrNoJournal = errors.New("store: no journal found")

// JSONL is a Store backed by an append-only JSONL file. Each line is a
// JSON-serialized coordinator.Event. The file is synced after every Append.
//
// Journal identity: "<unix-timestamp>-<pid>.jsonl", so names sort in
// creation order.
type JSONL struct {
	file      *os.File
	mu        sync.Mutex
	idx       *fileIndex
	journalID string
	startedAt time.Time
	pos       int64 // current write position in the file
}

// NewJSONL creates the journal for this process in dir. dir is created with
// os.MkdirAll if it does not exist.
func NewJSONL(dir string) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: mkdir %q: %w", dir, err)
	}
	now := time.Now()
	journalID := fmt.Sprintf("%d-%d", now.Unix(), os.Getpid())
	path := filepath.Join(dir, journalID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	j := &JSONL{
		file:      f,
		idx:       newFileIndex(),
		journalID: journalID,
		startedAt: now,
	}
	if err := j.replay(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return j, nil
}

// Open opens an existing journal file and rebuilds its index. New events
// appended through the returned handle go to the end of the file.
func Open(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	j := &JSONL{
		file:      f,
		idx:       newFileIndex(),
		journalID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
	}
	if info, statErr := f.Stat(); statErr == nil {
		j.startedAt = info.ModTime()
	}
	if err := j.replay(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return j, nil
}

// replay indexes every line already in the file and positions the writer at
// the end of it.
func (j *JSONL) replay() error {
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("store: seek: %w", err)
	}
	r := bufio.NewReader(j.file)
	var pos int64
	first := true
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			n := int64(len(line))
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				var ev coordinator.Event
				if uerr := json.Unmarshal(trimmed, &ev); uerr != nil {
					log.Printf("store: skipping malformed line at offset %d: %v", pos, uerr)
				} else {
					if first && !ev.Timestamp.IsZero() {
						j.startedAt = ev.Timestamp
					}
					first = false
					j.idx.onAppend(ev, pos, n)
				}
			}
			pos += n
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("store: replay: %w", err)
		}
	}
	if _, err := j.file.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("store: seek: %w", err)
	}
	j.pos = pos
	return nil
}

// Append serializes ev as a JSON line, writes it to the file, and syncs.
// It is safe to call from multiple goroutines.
func (j *JSONL) Append(ev coordinator.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	lineOffset := j.pos
	if _, err := j.file.WriteAt(data, lineOffset); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("store: sync: %w", err)
	}
	lineLen := int64(len(data))
	j.pos += lineLen
	j.idx.onAppend(ev, lineOffset, lineLen)
	return nil
}

// Close closes the underlying file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Path returns the journal's file path.
func (j *JSONL) Path() string {
	return j.file.Name()
}

// Batches returns summaries for all finished batches in this journal.
// The returned slice is a copy and safe to mutate.
func (j *JSONL) Batches() ([]BatchSummary, error) {
	j.mu.Lock()
	result := make([]BatchSummary, len(j.idx.summaries))
	copy(result, j.idx.summaries)
	j.mu.Unlock()
	return result, nil
}

// BatchLog returns every event written while batch id was open, reading
// from the JSONL file using the in-memory byte-offset index. Events from
// independent single-suite runs that interleaved with the batch are
// included. Returns an error if batch id has not finished.
func (j *JSONL) BatchLog(id string) ([]coordinator.Event, error) {
	j.mu.Lock()
	r, ok := j.idx.ranges[id]
	j.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("store: batch %s not found", id)
	}
	size := r.end - r.start
	if size <= 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	if _, err := j.file.ReadAt(buf, r.start); err != nil {
		return nil, fmt.Errorf("store: read batch %s: %w", id, err)
	}
	var events []coordinator.Event
	for _, line := range bytes.Split(buf, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ev coordinator.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Printf("store: skipping malformed line in batch %s: %v", id, err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Summary returns metadata about the journal derived from the in-memory
// index.
func (j *JSONL) Summary() (JournalSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := JournalSummary{
		JournalID: j.journalID,
		StartedAt: j.startedAt,
		Batches:   len(j.idx.summaries),
		Runs:      j.idx.runs,
		Failing:   j.idx.failing,
	}
	if n := len(j.idx.summaries); n > 0 {
		s.LastBatch = j.idx.summaries[n-1].ID
	}
	return s, nil
}

// Latest returns the path of the newest journal file in dir.
func Latest(dir string) (string, error) {
	files, err := journalFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoJournal, dir)
	}
	return filepath.Join(dir, files[len(files)-1]), nil
}

// EnforceRetention removes the oldest journal files in dir, keeping at most
// maxKeep files. If maxKeep is 0, no files are removed. Returns nil if dir
// does not exist or is empty.
func EnforceRetention(dir string, maxKeep int) error {
	if maxKeep <= 0 {
		return nil
	}
	files, err := journalFiles(dir)
	if err != nil {
		return err
	}

	toDelete := len(files) - maxKeep
	for i := 0; i < toDelete; i++ {
		path := filepath.Join(dir, files[i])
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove %q: %w", path, err)
		}
	}
	return nil
}

// journalFiles lists the .jsonl names in dir, oldest first.
func journalFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files) // timestamp-prefixed names sort chronologically
	return files, nil
}
