package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 10 * time.Millisecond, Multiplier: 2}

func TestRetryDoSuccess(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want %q", got, "ok")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryDoRetryThenSuccess(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{Code: 503}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want %q", got, "ok")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryDoExhausted(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		return "", &StatusError{Code: 502}
	})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 502 {
		t.Fatalf("expected last StatusError after exhausting attempts, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryDoRetriesPlainErrors(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		return "", errors.New("parse failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("every failure is retryable: expected 3 calls, got %d", calls)
	}
}

func TestRetryDoPermanent(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad input")
	_, err := RetryDo(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		return "", backoff.Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for a permanent error, got %d", calls)
	}
}

func TestRetryDoZeroDelay(t *testing.T) {
	rc := RetryConfig{MaxAttempts: 4}
	calls := 0
	start := time.Now()
	_, err := RetryDo(context.Background(), rc, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("zero-delay config took %v", elapsed)
	}
}

func TestRetryDoMinimumOneAttempt(t *testing.T) {
	calls := 0
	_, _ = RetryDo(context.Background(), RetryConfig{}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryDo(ctx, fastRetry, func(context.Context) (string, error) {
		calls++
		return "", &StatusError{Code: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls on a canceled context, got %d", calls)
	}
}

func TestRetryConfigBackOff(t *testing.T) {
	bo := DefaultRetryConfig.backOff()
	bo.Reset()
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := bo.NextBackOff(); got != w {
			t.Errorf("wait %d = %v, want %v", i, got, w)
		}
	}
}
