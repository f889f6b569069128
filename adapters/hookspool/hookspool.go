// Package hookspool implements the pending hook-event buffer as a JSONL
// spool file. External hooks append one JSON object per line outside the
// main request path; the ledger drains the file before budget and
// history reads.
package hookspool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tokenmeter/tokenmeter/ports"
)

// Spool is a file-backed ports.HookBuffer.
type Spool struct {
	mu   sync.Mutex
	path string
}

// New creates a spool over the given file path. The file need not exist;
// a missing spool drains to nothing.
func New(path string) *Spool {
	return &Spool{path: path}
}

// Append adds a pending event to the spool. Used by the hook entry
// point, and by the ingest side to put back events whose ledger write
// failed after a drain.
func (s *Spool) Append(e ports.PendingHookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open spool: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal hook event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append spool: %w", err)
	}
	return nil
}

// Drain atomically claims the spool contents and returns the pending
// events. The spool file is renamed aside before reading, so a writer
// appending concurrently starts a fresh file and nothing is replayed
// twice. An empty or missing spool yields (nil, nil).
func (s *Spool) Drain(ctx context.Context) ([]ports.PendingHookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claimed := s.path + ".draining"
	if err := os.Rename(s.path, claimed); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim spool: %w", err)
	}
	defer os.Remove(claimed)

	f, err := os.Open(claimed)
	if err != nil {
		return nil, fmt.Errorf("open claimed spool: %w", err)
	}
	defer f.Close()

	var events []ports.PendingHookEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e ports.PendingHookEvent
		if err := json.Unmarshal(line, &e); err != nil {
			// A torn final line from a killed hook process is dropped,
			// not allowed to wedge ingestion forever.
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read spool: %w", err)
	}
	return events, nil
}

// Ensure interface compliance.
var _ ports.HookBuffer = (*Spool)(nil)
