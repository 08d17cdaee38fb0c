package todo

import "errors"

// Error variables for task operations.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrAmbiguousID  = errors.New("task id prefix is ambiguous")
	ErrIDRequired   = errors.New("task id is required")
	ErrTextRequired = errors.New("task text is required")
)
