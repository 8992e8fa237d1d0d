// Package youtube retrieves search results and comment threads from the
// YouTube Data API v3.
//
// Two retry layers are stacked. Transport retries network failures and
// non-access HTTP statuses. Client retries whole page requests when the
// provider reports a quota condition in its error payload.
package youtube

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alnah/go-mentions/internal/apierr"
)

// DefaultBaseURL is the YouTube Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Endpoint limits and pacing.
const (
	searchPageSize     = 50
	commentPageSize    = 100
	defaultPageDelay   = 200 * time.Millisecond
	defaultHTTPTimeout = 15 * time.Second
)

// DefaultTransportRetry returns the network-level schedule:
// 5 attempts, floors of 1s, 2s, 4s, 8s plus 100-500ms jitter.
func DefaultTransportRetry() apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		JitterMin:   100 * time.Millisecond,
		JitterMax:   500 * time.Millisecond,
	}
}

// DefaultQuotaRetry returns the provider quota schedule:
// 5 attempts, 1s, 2s, 4s, 8s in whole seconds.
func DefaultQuotaRetry() apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
	}
}

// Client calls the search and commentThreads endpoints.
// A Client is immutable after construction and holds the API key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient httpDoer
	transport  apierr.RetryConfig
	quota      apierr.RetryConfig
	pageDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger

	fetcher *Transport
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (tests point it at httptest servers).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTransportRetry sets the network-level retry schedule.
func WithTransportRetry(cfg apierr.RetryConfig) Option {
	return func(c *Client) {
		c.transport = cfg
	}
}

// WithQuotaRetry sets the quota-level retry schedule.
func WithQuotaRetry(cfg apierr.RetryConfig) Option {
	return func(c *Client) {
		c.quota = cfg
	}
}

// WithPageDelay sets the pause between successful page fetches.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pageDelay = d
	}
}

// WithSleep replaces every wait the client performs (backoffs and page pacing).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithLogger sets the logger for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client for apiKey.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		transport:  DefaultTransportRetry(),
		quota:      DefaultQuotaRetry(),
		pageDelay:  defaultPageDelay,
		sleep:      apierr.SleepContext,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	tr := c.transport
	tr.Sleep = c.sleep
	c.fetcher = NewTransport(c.httpClient, tr, c.logger)
	return c, nil
}

// getPage fetches one page of endpoint with params, retrying quota failures.
// Any failure is returned as *APIError.
func (c *Client) getPage(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	q := make(url.Values, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", c.apiKey)
	rawURL := c.baseURL + "/" + endpoint + "?" + q.Encode()
	headers := map[string]string{"Accept": "application/json"}

	cfg := c.quota
	cfg.Sleep = c.sleep
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("quota limit, backing off",
			slog.String("endpoint", endpoint),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() ([]byte, error) {
		body, err := c.fetcher.Fetch(ctx, rawURL, headers)
		if err != nil {
			return nil, classifyFailure(err)
		}
		return body, nil
	}, isQuotaFailure)
}

// classifyFailure turns a transport failure into an *APIError. Failures
// without a response (network, cancellation) are ReasonUnknown.
func classifyFailure(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return &APIError{Reason: ReasonUnknown, Message: err.Error(), Err: err}
	}
	reason, msg := Classify(httpErr.Body)
	if msg == "" {
		msg = http.StatusText(httpErr.StatusCode)
	}
	return &APIError{Reason: reason, Message: msg, StatusCode: httpErr.StatusCode, Err: err}
}

// isQuotaFailure reports whether a classified failure is in the quota family.
func isQuotaFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Reason.Retryable()
}
