package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDataNotFound) {
//	    // handle missing datapoint / path
//	}
var (
	// ErrDataNotFound is returned when a requested management point,
	// datapoint or path segment does not exist. It is raised synchronously
	// by the accessor and is never retried.
	ErrDataNotFound = errors.New("device: data not found")

	// ErrInvalidDescriptor is returned when a raw descriptor fails
	// trust-boundary validation (missing id, duplicate embeddedId, bad JSON).
	ErrInvalidDescriptor = errors.New("device: invalid descriptor")

	// ErrSessionNotFound is returned when a device session ID does not exist.
	ErrSessionNotFound = errors.New("device: session not found")

	// ErrSnapshotNotFound is returned when no persisted snapshot exists
	// for a device ID.
	ErrSnapshotNotFound = errors.New("device: snapshot not found")
)
