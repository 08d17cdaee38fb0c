// Package debounce provides a restartable fire-once timer.
//
// A [Timer] runs its action once a quiet period has elapsed since the last
// call to [Timer.Arm]. Bursts of Arm calls collapse into a single run.
package debounce

import (
	"sync"
	"time"
)

// Clock schedules deferred calls. [RealClock] uses [time.AfterFunc];
// tests use [FakeClock] to control time explicitly.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// Stopper cancels a scheduled call. See [time.Timer.Stop].
type Stopper interface {
	Stop() bool
}

// RealClock schedules calls on the runtime timer.
type RealClock struct{}

// AfterFunc wraps [time.AfterFunc].
func (RealClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Timer is a debounce timer. It is safe for concurrent use.
//
// The action runs on the clock's goroutine, never while Timer's internal
// lock is held, so it may call back into the Timer.
type Timer struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	action  func()
	pending Stopper
	gen     uint64
	stopped bool
}

// New returns a Timer that runs action after delay of quiescence.
// A nil clock means [RealClock].
func New(delay time.Duration, clock Clock, action func()) *Timer {
	if clock == nil {
		clock = RealClock{}
	}

	return &Timer{
		clock:  clock,
		delay:  delay,
		action: action,
	}
}

// Arm (re)starts the quiet period. Any pending run is pushed back.
// Arm on a stopped Timer is a no-op.
func (t *Timer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	if t.pending != nil {
		t.pending.Stop()
	}

	t.gen++
	gen := t.gen
	t.pending = t.clock.AfterFunc(t.delay, func() { t.fire(gen) })
}

// Cancel drops a pending run without stopping the Timer.
// Reports whether a run was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancelLocked()
}

// Pending reports whether a run is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pending != nil
}

// Stop cancels any pending run and disables the Timer permanently.
// Stop is idempotent.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.stopped = true
}

func (t *Timer) cancelLocked() bool {
	if t.pending == nil {
		return false
	}

	t.pending.Stop()
	t.pending = nil
	t.gen++

	return true
}

// fire runs the action if gen is still current. A Stop that lost the race
// with the runtime timer bumps gen, which turns the late callback into a
// no-op.
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()

		return
	}

	t.pending = nil
	t.mu.Unlock()

	t.action()
}
