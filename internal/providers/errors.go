package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrProviderUnavailable marks a source that is not configured or whose breaker is open.
var ErrProviderUnavailable = errors.New("provider unavailable")

// RateLimitError captures rate limit responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Remaining  string
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// StatusError reports a non-2xx upstream response that is not a rate limit.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

var statusTooManyRequests = regexp.MustCompile(`\b429\b`)

// IsRateLimited reports whether err signals an upstream 429. Typed
// RateLimitErrors and 429 StatusErrors always count. Context and transport
// errors never do. Other untyped errors count when their text carries 429 as
// a whole token or mentions "rate limit".
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := AsRateLimitError(err); ok {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return false
	}
	msg := err.Error()
	return statusTooManyRequests.MatchString(msg) || strings.Contains(strings.ToLower(msg), "rate limit")
}

// NewRateLimitError builds a RateLimitError from an HTTP response.
func NewRateLimitError(provider string, resp *http.Response, now time.Time) *RateLimitError {
	rl := &RateLimitError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    provider + " rate limited",
	}
	rl.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), now)
	rl.Remaining = resp.Header.Get("X-RateLimit-Remaining")
	return rl
}

func parseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
