package session

import (
	"sync"
	"time"
)

// Countdown ticks once per second from an initial budget down to zero and
// fires an expiry callback exactly once. After Stop or expiry it is inert;
// further ticks change nothing and the callback never fires again.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	expired   bool
	stopped   bool
	onExpire  func()

	clock Clock
	done  chan struct{}
	once  sync.Once
}

// NewCountdown creates a countdown with the given budget in seconds. The
// callback runs on the ticking goroutine when the budget reaches zero.
func NewCountdown(seconds int, clock Clock, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		onExpire:  onExpire,
		clock:     clock,
		done:      make(chan struct{}),
	}
}

// Remaining returns the seconds left, never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Tick decrements the countdown by one second. It is the single mutation
// path, exported so tests and external tickers can drive it directly.
func (c *Countdown) Tick() {
	var fire func()

	c.mu.Lock()
	if c.stopped || c.expired {
		c.mu.Unlock()
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.expired = true
		fire = c.onExpire
	}
	c.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Run ticks every second until expiry or Stop. It blocks; call it on its own
// goroutine.
func (c *Countdown) Run() {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			c.Tick()
			c.mu.Lock()
			finished := c.expired || c.stopped
			c.mu.Unlock()
			if finished {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Stop makes the countdown inert. The expiry callback will not fire after
// Stop returns, even if the budget later reaches zero. Safe to call twice.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}
