package dispatch

import (
	"context"
	"sync"
	"time"
)

// windowLimiter admits at most max starts per fixed window. The clock is
// injectable for tests.
type windowLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	start  time.Time
	count  int
	now    func() time.Time
}

func newWindowLimiter(max int, window time.Duration) *windowLimiter {
	return &windowLimiter{max: max, window: window, now: time.Now}
}

// Wait blocks until the current window has room for one more start.
func (l *windowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		if l.start.IsZero() || now.Sub(l.start) >= l.window {
			l.start = now
			l.count = 0
		}
		if l.count < l.max {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.start)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
