package debounce

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a manually advanced [Clock] for tests.
//
// Scheduled calls run synchronously inside [FakeClock.Advance], in deadline
// order.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers []*fakeTimer
}

// NewFakeClock returns a clock starting at a fixed UTC instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AfterFunc schedules f to run once Advance moves past now+d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	ft := &fakeTimer{clock: c, id: c.nextID, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, ft)

	return ft
}

// Advance moves time forward by d, running every call that comes due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })

		if len(c.timers) == 0 || c.timers[0].at.After(target) {
			c.now = target
			c.mu.Unlock()

			return
		}

		due := c.timers[0]
		c.timers = c.timers[1:]
		c.now = due.at
		c.mu.Unlock()

		due.f()
	}
}

// Scheduled returns the number of calls waiting to run.
func (c *FakeClock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

type fakeTimer struct {
	clock *FakeClock
	id    int
	at    time.Time
	f     func()
}

func (t *fakeTimer) Stop() bool {
	c := t.clock

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.timers {
		if other.id == t.id {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)

			return true
		}
	}

	return false
}
