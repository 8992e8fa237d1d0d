package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/alnah/go-mentions/internal/apierr"
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport issues GET requests and retries transient failures.
// It knows nothing about the payloads it carries.
type Transport struct {
	client httpDoer
	retry  apierr.RetryConfig
	logger *slog.Logger
}

// NewTransport creates a Transport. A nil logger discards output.
func NewTransport(client httpDoer, retry apierr.RetryConfig, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{client: client, retry: retry, logger: logger}
}

// Fetch performs a GET and returns the body of the first 2xx response.
//
// 403 and 404 fail after a single attempt. Other statuses and network
// errors are retried per the transport's RetryConfig. The returned error
// wraps *HTTPError whenever a response was received, so callers can read the
// last status and body with errors.As.
func (t *Transport) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	attempt := 0
	return apierr.RetryWithBackoff(ctx, t.retry, func() ([]byte, error) {
		attempt++
		body, err := t.do(ctx, rawURL, headers)
		if err != nil {
			t.logFailure(attempt, err)
		}
		return body, err
	}, isTransientFailure)
}

// do performs a single attempt.
func (t *Transport) do(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		endpoint := *req.URL
		endpoint.RawQuery = ""
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Endpoint:   endpoint.String(),
		}
	}
	return body, nil
}

func (t *Transport) logFailure(attempt int, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.logger.Warn("http attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("status", httpErr.StatusCode),
			slog.String("endpoint", httpErr.Endpoint),
			slog.String("body", truncateBody(httpErr.Body)),
		)
		return
	}
	t.logger.Warn("http attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
}

// isTransientFailure decides whether another attempt may succeed.
// Access and missing-content errors will not clear by waiting.
func isTransientFailure(err error) bool {
	// Per-request client timeouts land here too; only the caller's ctx stops retries.
	if errors.Is(err, ErrRequestFailed) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusForbidden, http.StatusNotFound:
			return false
		}
	}
	return true
}
