package cloud

import (
	"errors"
	"fmt"
)

// Domain errors for the cloud package.
var (
	// ErrFetchFailed is returned when a remote fetch fails for reasons
	// other than an HTTP error status (transport failure, bad payload).
	ErrFetchFailed = errors.New("cloud: fetch failed")
)

// StatusError is an HTTP-derived remote failure. It preserves the status
// code so retry.IsRetryable can classify it: 408/429/502/503/504 are
// transient, most other statuses are permanent and surface immediately.
type StatusError struct {
	Status int
	URL    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("cloud: request to %s failed with status %d", e.URL, e.Status)
}

// StatusCode returns the HTTP status carried by this error.
func (e *StatusError) StatusCode() int {
	return e.Status
}
