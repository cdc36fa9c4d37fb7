package capture

import (
	"sync"
	"time"
)

const defaultThrottleInterval = 1100 * time.Millisecond

// Throttler enforces a minimum interval between screenshots
type Throttler struct {
	minInterval time.Duration
	last        time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewThrottler creates a throttler; a non-positive interval selects 1.1s
func NewThrottler(minInterval time.Duration) *Throttler {
	if minInterval <= 0 {
		minInterval = defaultThrottleInterval
	}
	return &Throttler{
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Allow reports whether a screenshot may be taken now and, if so, starts
// a new interval
func (t *Throttler) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.minInterval {
		return false
	}
	t.last = now
	return true
}

// RemainingWait returns how long until Allow would succeed
func (t *Throttler) RemainingWait() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining()
}

func (t *Throttler) remaining() time.Duration {
	if t.last.IsZero() {
		return 0
	}
	if wait := t.minInterval - t.now().Sub(t.last); wait > 0 {
		return wait
	}
	return 0
}

// Reset forgets the last screenshot time
func (t *Throttler) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = time.Time{}
}

// Status returns a snapshot of the throttler state for diagnostics
func (t *Throttler) Status() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	return map[string]interface{}{
		"lastScreenshotTime": t.last,
		"remainingWaitMs":    t.remaining().Milliseconds(),
		"minIntervalMs":      t.minInterval.Milliseconds(),
	}
}
