package schedule

import "errors"

var (
	// ErrSystemPanic wraps a panic recovered from a running callback
	ErrSystemPanic = errors.New("system panicked")
)
