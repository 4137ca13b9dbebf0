package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// StatusError is returned when the remote API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("TMDB API error (status %d)", e.Code)
	}
	return fmt.Sprintf("TMDB API error (status %d): %s", e.Code, e.Body)
}

// LogFunc is called before each retry with the attempt that just failed.
type LogFunc func(attempt int, maxAttempts int, backoff time.Duration, err error)

// Policy controls how Do retries a failing call.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	OnRetry        LogFunc
}

// Do executes fn with exponential backoff until it succeeds, the attempts run
// out, or ctx is done. The backoff doubles after each failed attempt starting
// from InitialBackoff and is doubled again for rate limited responses.
// Non-retryable errors (401, 404, decode failures) return immediately.
func Do(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}

	delay := func(n uint, err error, cfg *retrygo.Config) time.Duration {
		d := retrygo.BackOffDelay(n, err, cfg)
		if IsRateLimited(err) {
			d *= 2
		}
		return d
	}

	opts := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(uint(p.MaxAttempts)),
		retrygo.Delay(p.InitialBackoff),
		retrygo.DelayType(delay),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(func(err error) bool {
			return IsRetryable(err) || IsRateLimited(err)
		}),
	}
	if p.MaxBackoff > 0 {
		opts = append(opts, retrygo.MaxDelay(p.MaxBackoff))
	}
	if p.OnRetry != nil {
		opts = append(opts, retrygo.OnRetry(func(n uint, err error) {
			// retry-go also reports the final attempt; nothing follows it
			if int(n)+1 >= p.MaxAttempts {
				return
			}
			backoff := p.InitialBackoff * time.Duration(1<<n)
			if IsRateLimited(err) {
				backoff *= 2
			}
			p.OnRetry(int(n)+1, p.MaxAttempts, backoff, err)
		}))
	}

	return retrygo.Do(fn, opts...)
}

// IsRetryable returns true if the error is a transient error that should be retried.
// This includes network timeouts and 5xx server errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "temporary failure") {
		return true
	}

	return false
}

// IsRateLimited returns true if the error indicates rate limiting (HTTP 429).
func IsRateLimited(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests
}
