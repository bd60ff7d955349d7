package github

import (
	"math/rand"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultBaseDelay     = 1 * time.Second
	defaultMaxDelay      = 30 * time.Second
)

// RetryConfig defines retry behavior for failed API requests.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts
	BaseDelay   time.Duration // Base delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
	RetryOn     []int         // HTTP status codes to retry on
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: defaultRetryAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		RetryOn: []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		},
	}
}

// ShouldRetry returns true if the request should be retried based on the status code.
func (rc *RetryConfig) ShouldRetry(statusCode int) bool {
	for _, code := range rc.RetryOn {
		if code == statusCode {
			return true
		}
	}
	return false
}

// GetDelay calculates the delay for a given retry attempt with exponential backoff.
func (rc *RetryConfig) GetDelay(attempt int) time.Duration {
	delay := rc.BaseDelay * time.Duration(1<<uint(attempt))

	// Jitter to avoid thundering herd (±10%)
	jitter := time.Duration(float64(delay) * 0.1 * (rand.Float64()*2 - 1))
	delay += jitter

	if delay < 0 {
		delay = rc.BaseDelay
	}
	if delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}

	return delay
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "deadline exceeded") {
		return true
	}

	if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset") {
		return true
	}

	return false
}
