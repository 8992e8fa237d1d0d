package ingest_test

import (
	"context"
	"errors"
	"sync"

	"github.com/alnah/go-mentions/internal/record"
	"github.com/alnah/go-mentions/internal/youtube"
)

// mockSource serves canned ids and comments and records calls.
type mockSource struct {
	mu sync.Mutex

	ids       []string
	searchErr error
	comments  map[string][]youtube.Comment
	errs      map[string]error
	cancelOn  string
	cancel    context.CancelFunc

	queries    []youtube.Query
	fetched    []string
	maxResults []int
}

func (m *mockSource) SearchVideos(_ context.Context, q youtube.Query) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return m.ids, m.searchErr
}

func (m *mockSource) FetchComments(_ context.Context, videoID string, maxResults int) ([]youtube.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, videoID)
	m.maxResults = append(m.maxResults, maxResults)
	if videoID == m.cancelOn && m.cancel != nil {
		m.cancel()
	}
	return m.comments[videoID], m.errs[videoID]
}

// memSink collects written records.
type memSink struct {
	mu      sync.Mutex
	records []record.Record
	failAt  int
	closed  bool
}

var errDiskFull = errors.New("disk full")

func (s *memSink) Write(_ context.Context, r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.records)+1 == s.failAt {
		return errDiskFull
	}
	s.records = append(s.records, r)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

// countingPacer never waits and counts calls.
type countingPacer struct {
	calls int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.calls++
	return ctx.Err()
}
