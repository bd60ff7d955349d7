package github

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()

	tests := []struct {
		code int
		want bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusUnprocessableEntity, false},
		{0, false},
	}

	for _, tt := range tests {
		if got := rc.ShouldRetry(tt.code); got != tt.want {
			t.Errorf("ShouldRetry(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestGetDelay(t *testing.T) {
	rc := &RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}

	// Backoff stays positive and the cap is applied after jitter
	for attempt := 0; attempt < 5; attempt++ {
		delay := rc.GetDelay(attempt)
		if delay <= 0 {
			t.Errorf("GetDelay(%d) = %v, want positive", attempt, delay)
		}
		if delay > rc.MaxDelay {
			t.Errorf("GetDelay(%d) = %v, exceeds max delay", attempt, delay)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("net/http: request timeout"), true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"not found", errors.New("404 Not Found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
