package modeladapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrTransport is matched by every *TransportError through errors.Is.
var ErrTransport = errors.New("transport error")

// TransportError reports a failed call: the request never completed, the
// endpoint answered with a non-2xx status, or the body could not be parsed.
type TransportError struct {
	Endpoint   string
	StatusCode int           // Zero when no response was received.
	Body       string        // Response body, truncated, for non-2xx statuses.
	RetryAfter time.Duration // Parsed from Retry-After on 429 and 503.
	Err        error         // Underlying cause, if any.
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.RetryAfter > 0:
		return fmt.Sprintf("%s: unexpected status %d (retry after %s): %s", e.Endpoint, e.StatusCode, e.RetryAfter, e.Body)
	case e.StatusCode != 0 && e.Err == nil:
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Temporary reports whether the failure is worth retrying by the caller:
// rate limiting, server-side errors and network failures.
func (e *TransportError) Temporary() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
		return 0
	}
	return 0
}
