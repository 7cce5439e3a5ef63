package pipeline

import "fmt"

// WriteError is a filesystem persistence failure. It carries the path that
// could not be written so the report can show the user exactly what failed.
type WriteError struct {
	// Path is the destination path whose write failed.
	Path string

	// Err is the underlying filesystem error.
	Err error
}

// Error returns a human-readable description including the failing path.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
