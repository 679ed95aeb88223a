package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsAfterSleep(t *testing.T) {
	originalSleep := sleep
	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }
	defer func() { sleep = originalSleep }()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if slept != 3*time.Second {
		t.Fatalf("expected sleep of 3s, got %s", slept)
	}
}

func TestWaitForHonoursCancellation(t *testing.T) {
	originalSleep := sleep
	release := make(chan struct{})
	sleep = func(time.Duration) { <-release }
	defer func() {
		close(release)
		sleep = originalSleep
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForSkipsNonPositive(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attempt int
		expect  time.Duration
	}{
		{name: "first attempt uses base", attempt: 0, expect: time.Second},
		{name: "doubles", attempt: 2, expect: 4 * time.Second},
		{name: "capped", attempt: 10, expect: 8 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Backoff(time.Second, 8*time.Second, tt.attempt); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}
