package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// retryConfig bounds the backoff loop around model calls.
type retryConfig struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     10 * time.Second,
	}
}

// transientPatterns groups error substrings by failure category.
// Matched case-insensitively against err.Error(): the Gemini SDK does
// not expose typed errors for transient failures, so string matching
// is the only signal available.
var transientPatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},
	{"500", "502", "503", "504", "unavailable"},
	{"connection reset", "timeout", "temporary"},
}

// retryableError reports whether err is transient and worth retrying.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range transientPatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// withRetry runs call with exponential backoff on transient errors.
// Non-transient errors fail immediately. Streaming calls must not go
// through here: a retry would replay fragments the client already saw.
func withRetry(ctx context.Context, cfg retryConfig, call func() error) error {
	var lastErr error
	delay := cfg.initialInterval

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryableError(err) {
			return err
		}
		if attempt == cfg.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, cfg.maxInterval)
		}
	}

	return fmt.Errorf("after %d retries: %w", cfg.maxRetries, lastErr)
}
