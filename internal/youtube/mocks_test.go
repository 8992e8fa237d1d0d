package youtube_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// sleepRecorder - captures requested waits without blocking
// ---------------------------------------------------------------------------

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// ---------------------------------------------------------------------------
// mockProvider - scripted HTTP server standing in for the API
// ---------------------------------------------------------------------------

// reply is one scripted response.
type reply struct {
	status int
	body   string
}

// mockProvider serves replies in order; the last reply repeats once the
// script runs out.
type mockProvider struct {
	mu       sync.Mutex
	replies  []reply
	requests []*http.Request
	server   *httptest.Server
}

func newMockProvider(t *testing.T, replies ...reply) *mockProvider {
	t.Helper()
	m := &mockProvider{replies: replies}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockProvider) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	idx := min(len(m.requests), len(m.replies)-1)
	m.requests = append(m.requests, r.Clone(context.Background()))
	rep := m.replies[idx]
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func (m *mockProvider) URL() string {
	return m.server.URL
}

func (m *mockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Query returns the query parameters of request i.
func (m *mockProvider) Query(i int) url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i].URL.Query()
}

// Path returns the path of request i.
func (m *mockProvider) Path(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i].URL.Path
}

// Header returns header key of request i.
func (m *mockProvider) Header(i int, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i].Header.Get(key)
}

func okReply(body string) reply { return reply{status: http.StatusOK, body: body} }
