package iam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Retry configuration
const (
	MaxRetryAttempts  = 3
	InitialBackoff    = 500 * time.Millisecond
	MaxBackoff        = 5 * time.Second
	BackoffMultiplier = 2.0
)

// RetryableStatusCodes are transient failures worth another attempt.
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
	http.StatusBadGateway,
	http.StatusInternalServerError,
}

// ShouldRetry reports whether statusCode is transient.
func ShouldRetry(statusCode int) bool {
	for _, code := range RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// CalculateBackoff returns the pause before retry number attempt+1.
func CalculateBackoff(attempt int) time.Duration {
	backoff := InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff > MaxBackoff {
			return MaxBackoff
		}
	}
	return backoff
}

// sleep waits between attempts; tests shorten it.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc[T any] func() (T, error)

// WithRetry runs fn until it succeeds, fails with a non-retryable error, or
// MaxRetryAttempts is reached. Only APIErrors with a transient status are
// retried.
func WithRetry[T any](ctx context.Context, fn RetryableFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt < MaxRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("operation cancelled: %w", err)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !ShouldRetry(apiErr.StatusCode) {
			return zero, err
		}

		if attempt < MaxRetryAttempts-1 {
			if err := sleep(ctx, CalculateBackoff(attempt)); err != nil {
				return zero, fmt.Errorf("operation cancelled: %w", err)
			}
		}
	}

	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", MaxRetryAttempts, lastErr)
}
