package iam

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	prev := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = prev })
	return &waits
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
	}{
		{"429 Too Many Requests", http.StatusTooManyRequests, true},
		{"500 Internal Server Error", http.StatusInternalServerError, true},
		{"502 Bad Gateway", http.StatusBadGateway, true},
		{"503 Service Unavailable", http.StatusServiceUnavailable, true},
		{"504 Gateway Timeout", http.StatusGatewayTimeout, true},
		{"400 Bad Request", http.StatusBadRequest, false},
		{"401 Unauthorized", http.StatusUnauthorized, false},
		{"403 Forbidden", http.StatusForbidden, false},
		{"404 Not Found", http.StatusNotFound, false},
		{"200 OK", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.statusCode); got != tt.want {
				t.Errorf("ShouldRetry(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"attempt 0", 0, InitialBackoff},
		{"attempt 1", 1, InitialBackoff * 2},
		{"attempt 2", 2, InitialBackoff * 4},
		{"attempt large", 20, MaxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateBackoff(tt.attempt); got != tt.want {
				t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		waits := noSleep(t)
		calls := 0
		got, err := WithRetry(context.Background(), func() (string, error) {
			calls++
			if calls < 3 {
				return "", &APIError{StatusCode: http.StatusServiceUnavailable}
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "ok" || calls != 3 {
			t.Errorf("got %q after %d calls", got, calls)
		}
		if len(*waits) != 2 || (*waits)[0] != InitialBackoff {
			t.Errorf("waits = %v", *waits)
		}
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		noSleep(t)
		calls := 0
		_, err := WithRetry(context.Background(), func() (int, error) {
			calls++
			return 0, &APIError{StatusCode: http.StatusForbidden, Message: "denied"}
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "denied" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("non API errors are not retried", func(t *testing.T) {
		noSleep(t)
		calls := 0
		_, err := WithRetry(context.Background(), func() (int, error) {
			calls++
			return 0, errors.New("boom")
		})
		if err == nil || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		noSleep(t)
		calls := 0
		_, err := WithRetry(context.Background(), func() (int, error) {
			calls++
			return 0, &APIError{StatusCode: http.StatusTooManyRequests}
		})
		if calls != MaxRetryAttempts {
			t.Errorf("calls = %d, want %d", calls, MaxRetryAttempts)
		}
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := WithRetry(ctx, func() (int, error) {
			t.Fatal("fn should not run")
			return 0, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	})
}
