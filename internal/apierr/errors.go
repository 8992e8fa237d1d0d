// Package apierr provides shared error sentinels and retry infrastructure
// for HTTP-based API clients. Provider-specific failures are classified into
// these sentinels at the adapter boundary.
//
// Adapters wrap sentinels with context using fmt.Errorf("%s: %w", msg, sentinel)
// or expose them through Unwrap on their own typed errors.
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates a per-second or per-user rate limit was hit (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates a project or daily quota was exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrForbidden indicates the caller has no access to the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrAttemptsExhausted indicates every attempt allowed by a RetryConfig failed.
	ErrAttemptsExhausted = errors.New("retry attempts exhausted")
)
