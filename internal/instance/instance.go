// Package instance makes sure only one todowork process owns the data files.
//
// The first process to take the exclusive lock becomes the Primary. Later
// launches are Secondary: they signal the Primary to come to the front and
// exit without touching any data.
package instance

import "errors"

// File names inside the runtime directory.
const (
	LockFile   = "todowork.lock"
	SignalFile = "todowork.wake"
)

// ErrClosed is returned when a closed coordinator is asked to become Primary.
var ErrClosed = errors.New("coordinator closed")

// Coordinator is the single-instance protocol.
type Coordinator interface {
	// TryAcquirePrimary reports whether this process is now (or already was)
	// the Primary. It never blocks.
	TryAcquirePrimary() (bool, error)

	// SignalExistingPrimary asks the running Primary to come to the front.
	// It reports whether a Primary was reachable.
	SignalExistingPrimary() (bool, error)

	// Wakeups delivers one value per received signal burst while this process
	// is Primary. Pending wake-ups coalesce.
	Wakeups() <-chan struct{}

	// Close stops listening and releases the Primary role. Idempotent.
	Close() error
}
