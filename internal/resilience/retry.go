// Package resilience provides the bounded retry policy used around the
// model invocation, with separate backoff schedules for quota and generic
// failures.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior for a fallible remote call.
type Policy struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 2.
	MaxAttempts int

	// QuotaBackoff is the fixed delay before retrying after a rate-limit
	// signal. Default: 60s.
	QuotaBackoff time.Duration

	// Backoff is the base delay for non-quota retryable errors, scaled
	// linearly by the attempt number. Default: 5s.
	Backoff time.Duration

	// ShouldRetry optionally overrides the default retryable-error check.
	// If nil, IsRetryable is used.
	ShouldRetry func(err error) bool

	// Sleep overrides the suspension primitive, for tests. If nil, a
	// context-aware timer sleep is used.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each retry sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the retry policy used for model invocations.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  2,
		QuotaBackoff: 60 * time.Second,
		Backoff:      5 * time.Second,
	}
}

// DoVal executes fn with bounded retries. Quota errors wait the fixed quota
// backoff; other retryable errors wait Backoff scaled by the attempt number.
// Context cancellation stops retries immediately and the last error is
// returned once attempts are exhausted.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = applyDefaults(p)

	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}

		if !shouldRetry(lastErr) {
			return zero, lastErr
		}

		// Don't sleep after the last attempt.
		if attempt >= p.MaxAttempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		if err := sleep(ctx, backoffFor(lastErr, attempt, p)); err != nil {
			return zero, lastErr
		}
	}

	return zero, lastErr
}

func applyDefaults(p Policy) Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 2
	}
	if p.QuotaBackoff <= 0 {
		p.QuotaBackoff = 60 * time.Second
	}
	if p.Backoff <= 0 {
		p.Backoff = 5 * time.Second
	}
	return p
}

// backoffFor picks the delay before retry number attempt+1.
func backoffFor(err error, attempt int, p Policy) time.Duration {
	if IsQuota(err) {
		return p.QuotaBackoff
	}
	return p.Backoff * time.Duration(attempt+1)
}

func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
