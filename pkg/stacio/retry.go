package stacio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// RetryPolicy decides whether a request should be retried.
type RetryPolicy interface {
	ShouldRetry(resp *http.Response, err error) (bool, time.Duration)
}

// RetryPolicyFunc adapts a function to the RetryPolicy interface.
type RetryPolicyFunc func(resp *http.Response, err error) (bool, time.Duration)

// ShouldRetry implements the RetryPolicy interface.
func (f RetryPolicyFunc) ShouldRetry(resp *http.Response, err error) (bool, time.Duration) {
	return f(resp, err)
}

// DefaultRetryPolicy retries network errors, 429 and 5xx responses with a
// linear backoff of 500ms per attempt.
var DefaultRetryPolicy RetryPolicy = RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
	switch {
	case err != nil:
		return true, 500 * time.Millisecond
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return true, 500 * time.Millisecond
	default:
		return false, 0
	}
})

func (o *IO) retry(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	policy := o.retryPolicy
	if policy == nil {
		return fn()
	}
	var attempt int
	for {
		resp, err := fn()
		attempt++
		retry, delay := policy.ShouldRetry(resp, err)
		if !retry || ctx.Err() != nil || attempt >= o.maxAttempts {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}
		o.logger.Debugf("retrying in %s (attempt %d/%d)", delay*time.Duration(attempt), attempt+1, o.maxAttempts)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay * time.Duration(attempt)):
		}
	}
}

// newBodyReader returns a fresh reader per attempt so retried requests
// resend the whole body.
func newBodyReader(body []byte) io.Reader {
	return bytes.NewReader(body)
}
