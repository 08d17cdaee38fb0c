package debounce_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/calvinalkan/todowork/internal/debounce"
)

const window = 400 * time.Millisecond

func Test_Timer_Burst_Collapses_Into_One_Run(t *testing.T) {
	t.Parallel()

	clock := debounce.NewFakeClock()

	var runs atomic.Int32

	timer := debounce.New(window, clock, func() { runs.Add(1) })

	for range 10 {
		timer.Arm()
		clock.Advance(100 * time.Millisecond)
	}

	if got := runs.Load(); got != 0 {
		t.Fatalf("runs during burst = %d, want 0", got)
	}

	clock.Advance(299 * time.Millisecond)

	if got := runs.Load(); got != 0 {
		t.Fatalf("runs before quiet period elapsed = %d, want 0", got)
	}

	clock.Advance(time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Fatalf("runs after quiet period = %d, want 1", got)
	}

	if timer.Pending() {
		t.Error("Pending() = true after run")
	}
}

func Test_Timer_Cancel_Drops_Pending_Run(t *testing.T) {
	t.Parallel()

	clock := debounce.NewFakeClock()

	var runs atomic.Int32

	timer := debounce.New(window, clock, func() { runs.Add(1) })

	if timer.Cancel() {
		t.Error("Cancel() on idle timer = true, want false")
	}

	timer.Arm()

	if !timer.Cancel() {
		t.Error("Cancel() on armed timer = false, want true")
	}

	clock.Advance(time.Second)

	if got := runs.Load(); got != 0 {
		t.Fatalf("runs = %d, want 0", got)
	}

	timer.Arm()
	clock.Advance(window)

	if got := runs.Load(); got != 1 {
		t.Fatalf("runs after re-arm = %d, want 1", got)
	}
}

func Test_Timer_Stop_Is_Permanent_And_Idempotent(t *testing.T) {
	t.Parallel()

	clock := debounce.NewFakeClock()

	var runs atomic.Int32

	timer := debounce.New(window, clock, func() { runs.Add(1) })

	timer.Arm()
	timer.Stop()
	timer.Stop()
	timer.Arm()

	clock.Advance(time.Second)

	if got := runs.Load(); got != 0 {
		t.Fatalf("runs after Stop = %d, want 0", got)
	}

	if clock.Scheduled() != 0 {
		t.Errorf("Scheduled() = %d, want 0", clock.Scheduled())
	}
}

func Test_Timer_Real_Clock_Fires(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	timer := debounce.New(10*time.Millisecond, nil, func() { close(done) })

	timer.Arm()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
