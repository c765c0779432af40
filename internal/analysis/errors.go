package analysis

import "errors"

// QuotaExceededError is surfaced when the model's rate limit persists past
// the retry budget. The HTTP layer maps it to 429.
type QuotaExceededError struct {
	Cause error
}

func (e *QuotaExceededError) Error() string {
	return "analysis: model quota exceeded: " + e.Cause.Error()
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Cause
}

// FailedError is surfaced when the model invocation fails for any non-quota
// reason after retries. The HTTP layer maps it to 500; the cause stays
// attached for diagnostics.
type FailedError struct {
	Cause error
}

func (e *FailedError) Error() string {
	return "analysis: model invocation failed: " + e.Cause.Error()
}

func (e *FailedError) Unwrap() error {
	return e.Cause
}

// IsQuotaExceeded reports whether the error chain carries a QuotaExceededError.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
