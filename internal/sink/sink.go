// Package sink writes records to their destinations.
//
// Every write is independent: a crash mid-run leaves a prefix of complete
// records behind, never a torn line.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alnah/go-mentions/internal/record"
)

// ErrClosed indicates a write to a closed sink.
var ErrClosed = errors.New("sink closed")

// Writer receives records one at a time.
type Writer interface {
	Write(ctx context.Context, r record.Record) error
	Close() error
}

// NDJSON appends one JSON object per line to a file.
type NDJSON struct {
	mu     sync.Mutex
	f      *os.File
	path   string
	closed bool
}

// OpenNDJSON opens path for appending, creating it and its parent
// directories when needed.
func OpenNDJSON(path string) (*NDJSON, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open output file: %w", err)
	}
	return &NDJSON{f: f, path: path}, nil
}

// Path returns the file being written.
func (s *NDJSON) Path() string {
	return s.path
}

// Write encodes r and appends it with a single write call.
func (s *NDJSON) Write(_ context.Context, r record.Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", r.PostID, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("write record %s: %w", r.PostID, err)
	}
	return nil
}

// Close closes the file. Closing twice is a no-op.
func (s *NDJSON) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// Multi fans each record out to several writers in order.
type Multi []Writer

// Write stops at the first failing writer.
func (m Multi) Write(ctx context.Context, r record.Record) error {
	for _, w := range m {
		if err := w.Write(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
