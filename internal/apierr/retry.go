package apierr

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackoffShift bounds the exponent so BaseDelay << attempt cannot overflow.
const maxBackoffShift = 30

// RetryConfig describes an attempt budget and its backoff schedule.
//
// The delay after failed attempt n (0-based) is BaseDelay * 2^n plus a
// uniform random jitter in [JitterMin, JitterMax], drawn fresh per attempt.
//
// Invalid values are normalized:
//   - MaxAttempts < 1 becomes 1 (single attempt)
//   - negative BaseDelay, JitterMin or JitterMax become 0
//   - JitterMax < JitterMin becomes JitterMin
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration

	// Sleep waits between attempts. Nil uses a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry, when set, is called before each wait with the 0-based index
	// of the attempt that failed.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// normalize ensures all RetryConfig fields have valid values.
func (c *RetryConfig) normalize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	c.BaseDelay = max(c.BaseDelay, 0)
	c.JitterMin = max(c.JitterMin, 0)
	c.JitterMax = max(c.JitterMax, c.JitterMin)
	if c.Sleep == nil {
		c.Sleep = SleepContext
	}
}

// Floor returns the jitter-free delay after failed attempt n (0-based).
func (c RetryConfig) Floor(attempt int) time.Duration {
	shift := min(max(attempt, 0), maxBackoffShift)
	return max(c.BaseDelay, 0) << shift
}

// Delay returns the full delay after failed attempt n: Floor plus jitter.
func (c RetryConfig) Delay(attempt int) time.Duration {
	lo, hi := max(c.JitterMin, 0), max(c.JitterMax, c.JitterMin, 0)
	jitter := lo
	if hi > lo {
		jitter += time.Duration(rand.Int64N(int64(hi-lo) + 1))
	}
	return c.Floor(attempt) + jitter
}

// RetryWithBackoff executes fn until it succeeds, shouldRetry rejects its
// error, or MaxAttempts attempts have failed.
//
// A rejected error is returned unchanged. After exhaustion the last error is
// returned wrapped together with ErrAttemptsExhausted, so errors.As still
// reaches typed errors carried by the final attempt.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, lastErr)
		}
		if err := cfg.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, cfg.MaxAttempts, lastErr)
}

// SleepContext blocks for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
