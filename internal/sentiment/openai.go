package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-mentions/internal/apierr"
)

// DefaultModel is the chat model used for scoring.
const DefaultModel = openai.GPT4oMini

const systemPrompt = `You rate the sentiment of short social media comments about a brand.
Reply with a JSON object {"compound": <number>} where compound is between -1 (most negative) and 1 (most positive), and 0 is neutral.`

// chatCompleter is the subset of *openai.Client used for scoring.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Scorer        = (*OpenAIScorer)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAIScorer scores text with an OpenAI chat model.
// Transient API failures are retried.
type OpenAIScorer struct {
	client chatCompleter
	model  string
	retry  apierr.RetryConfig
}

// Option configures an OpenAIScorer.
type Option func(*OpenAIScorer)

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(s *OpenAIScorer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithRetry sets the retry schedule.
func WithRetry(cfg apierr.RetryConfig) Option {
	return func(s *OpenAIScorer) {
		s.retry = cfg
	}
}

// NewOpenAIScorer creates a scorer backed by client.
func NewOpenAIScorer(client *openai.Client, opts ...Option) *OpenAIScorer {
	return newOpenAIScorer(client, opts...)
}

func newOpenAIScorer(client chatCompleter, opts ...Option) *OpenAIScorer {
	s := &OpenAIScorer{
		client: client,
		model:  DefaultModel,
		retry: apierr.RetryConfig{
			MaxAttempts: 4,
			BaseDelay:   time.Second,
			JitterMax:   250 * time.Millisecond,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates text. Blank text scores 0 without a request.
func (s *OpenAIScorer) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	}

	return apierr.RetryWithBackoff(ctx, s.retry, func() (float64, error) {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return 0, classifyError(err)
		}
		if len(resp.Choices) == 0 {
			return 0, fmt.Errorf("%w: no choices", ErrBadResponse)
		}
		return parseScore(resp.Choices[0].Message.Content)
	}, isRetryableError)
}

// parseScore reads {"compound": x} and clamps x into [-1, 1].
func parseScore(content string) (float64, error) {
	var reply struct {
		Compound *float64 `json:"compound"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if reply.Compound == nil {
		return 0, fmt.Errorf("%w: missing compound", ErrBadResponse)
	}
	return min(max(*reply.Compound, -1), 1), nil
}

// classifyError maps OpenAI API failures onto apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Billing quota needs user action; plain rate limits clear by waiting.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	return err
}

// isRetryableError reports whether a classified failure may clear by waiting.
func isRetryableError(err error) bool {
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable:
			return true
		}
	}
	return false
}
