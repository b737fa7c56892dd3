package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heibot/sanction"
)

func TestRetryer_Do_Success(t *testing.T) {
	r := NewRetryer(RetryConfig{MaxRetries: 3})

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryer_Do_RetrySuccess(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxRetries:   3,
		InitialDelay: 5 * time.Millisecond,
	})

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return sanction.ErrTimeout
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryer_Do_MaxRetriesExceeded(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
	})

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return sanction.ErrTimeout
	})

	if !errors.Is(err, sanction.ErrTimeout) {
		t.Errorf("Do() error = %v, want ErrTimeout", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryer_Do_NotFoundIsNotRetried(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxRetries:   3,
		InitialDelay: 5 * time.Millisecond,
	})

	calls := 0
	gone := sanction.NewPlatformError("discord", "delete_message", "Unknown Message").WithStatusCode(404)
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return gone
	})

	if err != gone {
		t.Errorf("Do() error = %v, want %v", err, gone)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryer_Do_ContextCanceled(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxRetries:   10,
		InitialDelay: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func(context.Context) error {
		return sanction.ErrTimeout
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestRetryer_OnRetry(t *testing.T) {
	var attempts []int
	r := NewRetryer(RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		},
	})

	_ = r.Do(context.Background(), func(context.Context) error {
		return sanction.ErrTimeout
	})

	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("attempts = %v, want [1 2 3]", attempts)
	}
}

func TestRetryer_DelayCapped(t *testing.T) {
	r := NewRetryer(RetryConfig{
		InitialDelay: time.Second,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   10,
	})

	for attempt := 0; attempt < 5; attempt++ {
		if d := r.delay(attempt); d > 100*time.Millisecond {
			t.Errorf("delay(%d) = %v, want <= 100ms", attempt, d)
		}
	}
}

func TestRetryer_ExponentialDelay(t *testing.T) {
	r := NewRetryer(RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	})

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second}
	for attempt, w := range want {
		if got := r.delay(attempt); got != w {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestRetryer_HonorsRetryAfter(t *testing.T) {
	var delays []time.Duration
	r := NewRetryer(RetryConfig{
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
		OnRetry: func(_ int, _ error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	limited := sanction.NewPlatformError("discord", "delete_message", "slow down").WithRetryAfter(30 * time.Millisecond)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return limited
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(delays) != 1 || delays[0] != 30*time.Millisecond {
		t.Errorf("delays = %v, want [30ms]", delays)
	}
}
