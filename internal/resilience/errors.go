package resilience

import (
	"errors"
	"net"
	"strings"
)

// QuotaError wraps a rate-limit signal from an external service. Retries use
// the (longer) quota backoff for it, and exhaustion is surfaced to the caller
// as a quota failure rather than a generic one.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return e.Err.Error()
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// NewQuotaError wraps an error as a rate-limit signal.
func NewQuotaError(err error) *QuotaError {
	return &QuotaError{Err: err}
}

// IsQuota reports whether the error chain carries a rate-limit signal.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// IsRetryable reports whether the error is worth another attempt: quota
// errors always are, as are network timeouts and common transient transport
// failures from wrapped HTTP clients.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if IsQuota(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"tls handshake timeout",
		"i/o timeout",
		"overloaded",
		"server closed idle connection",
		"internal server error",
		"bad gateway",
		"service unavailable",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
