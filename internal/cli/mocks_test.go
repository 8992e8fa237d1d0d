package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alnah/go-mentions/internal/config"
	"github.com/alnah/go-mentions/internal/ingest"
	"github.com/alnah/go-mentions/internal/sentiment"
	"github.com/alnah/go-mentions/internal/youtube"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock SourceFactory + Source
// ---------------------------------------------------------------------------

type mockSourceFactory struct {
	NewSourceFunc func(apiKey string) (ingest.Source, error)
	source        *mockSource

	mu    sync.Mutex
	calls []string
}

func (m *mockSourceFactory) NewSource(apiKey string, _ *slog.Logger) (ingest.Source, error) {
	m.mu.Lock()
	m.calls = append(m.calls, apiKey)
	m.mu.Unlock()

	if m.NewSourceFunc != nil {
		return m.NewSourceFunc(apiKey)
	}
	if m.source == nil {
		m.source = &mockSource{}
	}
	return m.source, nil
}

func (m *mockSourceFactory) NewSourceCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockSource struct {
	IDs      []string
	Comments map[string][]youtube.Comment
	// OnSearch runs before SearchVideos returns, e.g. to cancel the context.
	OnSearch func()

	mu      sync.Mutex
	queries []youtube.Query
	fetched []string
}

func (m *mockSource) SearchVideos(_ context.Context, q youtube.Query) ([]string, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.OnSearch != nil {
		m.OnSearch()
	}
	return m.IDs, nil
}

func (m *mockSource) FetchComments(_ context.Context, videoID string, _ int) ([]youtube.Comment, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, videoID)
	m.mu.Unlock()

	return m.Comments[videoID], nil
}

func (m *mockSource) Queries() []youtube.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]youtube.Query(nil), m.queries...)
}

// ---------------------------------------------------------------------------
// Mock ScorerFactory + Scorer
// ---------------------------------------------------------------------------

type mockScorerFactory struct {
	scorer *mockScorer

	mu    sync.Mutex
	calls []string
}

func (m *mockScorerFactory) NewScorer(apiKey string) sentiment.Scorer {
	m.mu.Lock()
	m.calls = append(m.calls, apiKey)
	m.mu.Unlock()

	if m.scorer == nil {
		m.scorer = &mockScorer{}
	}
	return m.scorer
}

func (m *mockScorerFactory) NewScorerCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockScorer returns Scores[text], 0 for unknown texts, Errs[text] for
// texts listed there, or Err for every call.
type mockScorer struct {
	Scores map[string]float64
	Errs   map[string]error
	Err    error
}

func (m *mockScorer) Score(_ context.Context, text string) (float64, error) {
	if m.Err != nil {
		return 0, fmt.Errorf("score %q: %w", text, m.Err)
	}
	if err, ok := m.Errs[text]; ok {
		return 0, fmt.Errorf("score %q: %w", text, err)
	}
	return m.Scores[text], nil
}
