package errors

import (
	"fmt"
)

var (
	// ErrNotImplemented is returned when a caller asks for behavior that exists
	// in the API but has no implementation, such as a bottom-up tree walk.
	ErrNotImplemented = New("not implemented")

	// ErrLinesConsumed is yielded when a single-pass line sequence is ranged
	// over a second time.
	ErrLinesConsumed = New("line sequence already consumed")
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}
