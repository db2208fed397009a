package mcp

import (
	"context"
	"time"

	"mantra-sdk/internal/errors"
)

// Retry defaults.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBase     = 100 * time.Millisecond
)

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
}

func (r RetryConfig) normalized() RetryConfig {
	if r.Attempts <= 0 {
		r.Attempts = DefaultRetryAttempts
	}
	if r.BaseDelay <= 0 {
		r.BaseDelay = DefaultRetryBase
	}
	return r
}

// retry runs fn up to Attempts times with exponential backoff, retrying
// only errors whose code is marked retryable. The last error wins.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.normalized()

	var last error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(errors.CodeTimeout, ctx.Err(), "retry aborted")
			case <-time.After(delay):
			}
			delay *= 2
		}

		last = fn()
		if last == nil {
			return nil
		}
		if !errors.RetryableError(last) {
			return last
		}
	}
	return last
}
