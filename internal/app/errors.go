package app

import (
	"errors"
)

// ErrAlreadyRunning is matched (via errors.Is) by [*AlreadyRunningError].
var ErrAlreadyRunning = errors.New("todowork is already running")

// AlreadyRunningError is returned by [Start] when another process is
// Primary.
type AlreadyRunningError struct {
	// Signaled reports whether the running instance was asked to come to
	// the front.
	Signaled bool
}

func (e *AlreadyRunningError) Error() string {
	if e.Signaled {
		return ErrAlreadyRunning.Error() + "; switched to the existing instance"
	}

	return ErrAlreadyRunning.Error() + "; could not reach the existing instance"
}

func (e *AlreadyRunningError) Is(target error) bool {
	return target == ErrAlreadyRunning
}
