package sentiment_test

import (
	"context"
	"errors"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// mockChat replays scripted replies and records requests.
type mockChat struct {
	mu       sync.Mutex
	replies  []chatReply
	requests []openai.ChatCompletionRequest
}

type chatReply struct {
	content string
	err     error
}

func (m *mockChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := min(len(m.requests), len(m.replies)-1)
	m.requests = append(m.requests, req)
	r := m.replies[idx]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: r.content}}},
	}, nil
}

func (m *mockChat) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mapScorer scores by lookup and fails on unknown text with fail, or
// errUnknownText when fail is nil.
type mapScorer struct {
	mu     sync.Mutex
	scores map[string]float64
	fail   error
	calls  int
}

var errUnknownText = errors.New("unknown text")

func (s *mapScorer) Score(_ context.Context, text string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	v, ok := s.scores[text]
	if !ok {
		if s.fail != nil {
			return 0, s.fail
		}
		return 0, errUnknownText
	}
	return v, nil
}
