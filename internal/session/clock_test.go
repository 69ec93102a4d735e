package session

import (
	"time"
)

// fakeClock drives Countdown and Sampler deterministically in tests.
type fakeClock struct {
	now  time.Time
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:  time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
		tick: make(chan time.Time),
	}
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) NewTicker(d time.Duration) Ticker {
	return &fakeTicker{c: f.tick}
}

// advance moves the clock forward and delivers one tick.
func (f *fakeClock) advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.tick <- f.now
}

type fakeTicker struct {
	c chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               {}
