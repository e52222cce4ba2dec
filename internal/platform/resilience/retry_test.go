package resilience

import (
	"context"
	"errors"
	"testing"
)

var errFlaky = errors.New("flaky")

func TestRetry_SucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3}, func(err error) bool {
		return errors.Is(err, errFlaky)
	}, func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustedKeepsCause(t *testing.T) {
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 2}, func(error) bool { return true },
		func(context.Context, int) error { return errFlaky })

	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 5}, func(err error) bool {
		return errors.Is(err, errFlaky)
	}, func(context.Context, int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryConfig{MaxAttempts: 3}, nil, func(context.Context, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
