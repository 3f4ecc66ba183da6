// Package tracelog writes the per-process JSONL trace of the planning
// pipeline: request boundaries, oracle round-trips with token usage, routing
// plans, per-task dispatch/skip events, and extraction degradations. The
// trace is the raw material for debugging a misbehaving oracle.
//
// All Trace methods are nil-safe (no-op on nil receiver) so call sites never
// need nil checks when tracing is disabled.
package tracelog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

// Kind labels one JSONL line in the trace.
type Kind string

const (
	KindRequestBegin Kind = "request_begin"
	KindRequestEnd   Kind = "request_end"
	KindBusEvent     Kind = "bus_event"
)

// Record is one JSONL line. Fields are omitempty so each record carries only
// relevant data.
type Record struct {
	Kind      Kind   `json:"kind"`
	Timestamp string `json:"ts"`

	// request_begin / request_end
	RequestID string `json:"request_id,omitempty"`
	Query     string `json:"query,omitempty"`
	Tasks     int    `json:"tasks,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`

	// bus_event
	From      types.Component `json:"from,omitempty"`
	EventType types.EventType `json:"event_type,omitempty"`
	Payload   any             `json:"payload,omitempty"`
}

// Trace owns one append-only JSONL file.
type Trace struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates a timestamped trace file under dir, creating dir if needed.
func Open(dir string) (*Trace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tracelog: mkdir %s: %w", dir, err)
	}
	name := fmt.Sprintf("trace-%s.jsonl", time.Now().UTC().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tracelog: open trace file: %w", err)
	}
	return &Trace{f: f}, nil
}

// Append writes one record. Stamps Timestamp when missing.
func (t *Trace) Append(r Record) {
	if t == nil {
		return
	}
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	line, err := json.Marshal(r)
	if err != nil {
		log.Printf("[TRACE] WARNING: marshal record: %v", err)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.f.Write(append(line, '\n')); err != nil {
		log.Printf("[TRACE] WARNING: write record: %v", err)
	}
}

// RequestBegin records the start of one pipeline run.
func (t *Trace) RequestBegin(requestID, query string) {
	t.Append(Record{Kind: KindRequestBegin, RequestID: requestID, Query: query})
}

// RequestEnd records the aggregate outcome of one pipeline run.
func (t *Trace) RequestEnd(requestID string, results []types.TaskResult, elapsed time.Duration) {
	if t == nil {
		return
	}
	var skipped, failed int
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
		if r.Failure != nil {
			failed++
		}
	}
	t.Append(Record{
		Kind:      KindRequestEnd,
		RequestID: requestID,
		Tasks:     len(results),
		Skipped:   skipped,
		Failed:    failed,
		ElapsedMs: elapsed.Milliseconds(),
	})
}

// Drain consumes the bus tap until it closes, mirroring every event into the
// trace. Run it on its own goroutine.
func (t *Trace) Drain(tap <-chan types.Event) {
	for evt := range tap {
		t.Append(Record{
			Kind:      KindBusEvent,
			Timestamp: evt.Timestamp.UTC().Format(time.RFC3339Nano),
			From:      evt.From,
			EventType: evt.Type,
			Payload:   evt.Payload,
		})
	}
}

// Close flushes and closes the trace file.
func (t *Trace) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.f.Sync()
	_ = t.f.Close()
}
