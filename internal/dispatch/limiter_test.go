package dispatch

import (
	"context"
	"testing"
	"time"
)

func TestWindowLimiterAdmitsUpToCap(t *testing.T) {
	now := time.Now()
	l := newWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	// Window rolls over, the budget resets.
	now = now.Add(time.Minute)
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestWindowLimiterBlocksUntilNextWindow(t *testing.T) {
	l := newWindowLimiter(1, 80*time.Millisecond)

	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("second admission after %v, expected to wait for the window", elapsed)
	}
}

func TestWindowLimiterRespectsCancellation(t *testing.T) {
	l := newWindowLimiter(1, 5*time.Second)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("expected context error while waiting on a full window")
	}
}
