package coach

import (
	"sync"
	"time"
)

// Limiter rate-limits fired tips. Keys are "" for the process-wide limit or a
// session id when the limit is per session.
type Limiter interface {
	TryAcquire(key string, now time.Time) bool
	RecordFired(key string, now time.Time)
}

// pruneAt bounds the per-key map before stale entries are swept.
const pruneAt = 1024

// Cooldown allows a tip once every window per key.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: map[string]time.Time{}}
}

// TryAcquire reports whether key is outside its cooldown window at now. It
// does not reserve anything; only RecordFired starts a new window.
func (c *Cooldown) TryAcquire(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[key]
	return !ok || now.Sub(last) >= c.window
}

func (c *Cooldown) RecordFired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[key] = now
	if len(c.last) > pruneAt {
		for k, ts := range c.last {
			if now.Sub(ts) >= c.window {
				delete(c.last, k)
			}
		}
	}
}
