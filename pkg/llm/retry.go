package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const maxErrorBodyBytes = 64 << 10

type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newRetryConfig(maxRetries int, base, max time.Duration) retryConfig {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if max <= 0 {
		max = 8 * time.Second
	}
	if max < base {
		max = base
	}
	return retryConfig{maxRetries: maxRetries, baseDelay: base, maxDelay: max}
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func shouldRetry(_ *http.Response, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var buildErr *requestBuildError
	return !errors.As(err, &buildErr)
}

type requestBuildError struct{ err error }

func (e *requestBuildError) Error() string { return e.err.Error() }
func (e *requestBuildError) Unwrap() error { return e.err }

//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func newRetryPolicy(cfg retryConfig) retrypolicy.RetryPolicy[*http.Response] {
	return retrypolicy.NewBuilder[*http.Response]().
		HandleIf(shouldRetry).
		WithBackoff(cfg.baseDelay, cfg.maxDelay).
		WithMaxRetries(cfg.maxRetries).
		WithJitterFactor(0.1).
		Build()
}

// doWithRetry sends the request built by build, retrying transient failures.
// Non-2xx responses are drained, closed and converted into *StatusError, so a
// returned response always has a 2xx status and an open body.
func doWithRetry(ctx context.Context, client *http.Client, cfg retryConfig, build func() (*http.Request, error)) (*http.Response, error) {
	executor := failsafe.With[*http.Response](newRetryPolicy(cfg))
	resp, err := executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := build()
		if err != nil {
			return nil, &requestBuildError{err: err}
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
			return nil, &StatusError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(body)),
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
