package mcp

import (
	"context"
	"testing"
	"time"

	"mantra-sdk/internal/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{Attempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryEventualSuccess(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New(errors.CodeRPC, "endpoint flaked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry(3), func() error {
		calls++
		return errors.New(errors.CodeInvalidArgument, "bad input")
	})
	if errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry(3), func() error {
		calls++
		return errors.New(errors.CodeRPC, "still down")
	})
	if errors.CodeOf(err) != errors.CodeRPC {
		t.Fatalf("err = %v, want RPC", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, RetryConfig{Attempts: 5, BaseDelay: 50 * time.Millisecond}, func() error {
		calls++
		cancel()
		return errors.New(errors.CodeRPC, "endpoint flaked")
	})
	if errors.CodeOf(err) != errors.CodeTimeout {
		t.Fatalf("err = %v, want TIMEOUT", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
