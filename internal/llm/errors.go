package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransportError is a failed provider round-trip.
type TransportError struct {
	Provider   Provider
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

var retryablePatterns = []string{
	"timeout",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
	"rate limit",
	"resource exhausted",
}

// IsRetryable classifies err as transient. Typed transport errors decide for
// themselves; otherwise deadlines and network timeouts are retryable, and a
// small set of message patterns covers untyped SDK errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		if te.Retryable {
			return true
		}
		if te.StatusCode != 0 {
			return false
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func transportError(p Provider, status int, err error) *TransportError {
	return &TransportError{
		Provider:   p,
		StatusCode: status,
		Retryable:  retryableStatus(status) || (status == 0 && IsRetryable(err)),
		Err:        err,
	}
}
