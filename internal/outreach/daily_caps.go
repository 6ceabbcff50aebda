package outreach

import (
	"math"
	"sync"
	"time"
)

// DailyCaps tracks per-channel send budgets that reset when the
// wall-clock date changes. Counts are process-local, matching the
// single-owner lifetime of a campaign runner.
type DailyCaps struct {
	mu     sync.Mutex
	caps   map[string]int
	counts map[string]int
	day    string
	now    func() time.Time
}

func NewDailyCaps(caps map[string]int) *DailyCaps {
	return NewDailyCapsWithClock(caps, time.Now)
}

// NewDailyCapsWithClock injects the clock so day rollover is testable.
func NewDailyCapsWithClock(caps map[string]int, now func() time.Time) *DailyCaps {
	return &DailyCaps{
		caps:   caps,
		counts: map[string]int{},
		now:    now,
	}
}

// Remaining reports how many sends the channel may still attempt today.
// Channels without a configured cap are unlimited.
func (d *DailyCaps) Remaining(channel string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rollover()

	max, ok := d.caps[channel]
	if !ok || max <= 0 {
		return math.MaxInt
	}
	remaining := max - d.counts[channel]
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Add records n attempted sends against today's budget.
func (d *DailyCaps) Add(channel string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rollover()
	d.counts[channel] += n
}

func (d *DailyCaps) rollover() {
	day := d.now().Format("2006-01-02")
	if day != d.day {
		d.day = day
		d.counts = map[string]int{}
	}
}
