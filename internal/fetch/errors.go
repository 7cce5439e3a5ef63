package fetch

import "fmt"

// Error is a transport-level fetch failure. It carries the URL that failed
// and, for HTTP-level failures, the response status code.
//
// Design decision: We use a single error type with errors.As support rather
// than distinct sentinel errors per failure mode because callers only ever
// branch on "did the network layer fail" and need the URL for reporting;
// the underlying error keeps the detail.
type Error struct {
	// URL is the URL whose fetch failed.
	URL string

	// StatusCode is the HTTP status code when the server responded with a
	// non-success status. Zero when the failure happened below HTTP.
	StatusCode int

	// Err is the underlying transport error, nil for status failures.
	Err error
}

// Error returns a human-readable description including the failing URL.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}
