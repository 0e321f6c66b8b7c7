package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Countdown is the single authoritative tick source for an attempt's
// remaining time. It decrements once per wall-clock second and fires
// onExpire exactly once when reaching zero.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	running   bool
	onExpire  func()
}

// NewCountdown creates a countdown seeded with the given number of
// seconds. onExpire is invoked (once, outside the lock) when the
// countdown reaches zero while running.
func NewCountdown(seconds int, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		running:   true,
		onExpire:  onExpire,
	}
}

// Tick advances the countdown by one second. On reaching zero it stops
// ticking, leaves the remainder at zero and fires onExpire. Ticks after
// expiry or Stop are no-ops.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}

	c.remaining--
	fire := false
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		fire = true
	}
	onExpire := c.onExpire
	c.mu.Unlock()

	if fire && onExpire != nil {
		onExpire()
	}
}

// Run drives Tick at 1 Hz until the countdown expires, Stop is called,
// or the context is cancelled. onTick, if non-nil, observes the
// remaining seconds after every tick. Call in a goroutine.
func (c *Countdown) Run(ctx context.Context, onTick func(remaining int)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
			if onTick != nil {
				onTick(c.Remaining())
			}
			if !c.Running() {
				return
			}
		}
	}
}

// Stop halts ticking without firing onExpire. Used at teardown after a
// manual submission.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// Remaining returns the remaining whole seconds (never negative).
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is still ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// FormatRemaining renders seconds as M:SS — minutes unpadded, seconds
// zero-padded: 75 → "1:15".
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
