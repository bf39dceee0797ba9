package facade

import (
	"sync"
	"time"
)

// throttle admits at most one operation per interval. Callers that arrive
// early are turned away rather than delayed.
type throttle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	next time.Time
}

func newThrottle(interval time.Duration) *throttle {
	if interval <= 0 {
		return &throttle{now: time.Now}
	}
	return &throttle{interval: interval, now: time.Now}
}

func (t *throttle) allow() bool {
	if t == nil || t.interval <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if now.Before(t.next) {
		return false
	}
	t.next = now.Add(t.interval)
	return true
}
