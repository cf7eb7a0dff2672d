package headtracking

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotAvailable is returned when no head tracker exists on this
	// platform or none is configured.
	ErrNotAvailable = errors.New("headtracking: not available")

	// ErrPermissionDenied is returned when the sensor refuses access.
	ErrPermissionDenied = errors.New("headtracking: permission denied")

	// ErrStopped is returned by Start when Stop was called first.
	ErrStopped = errors.New("headtracking: stopped")

	// ErrInvalidSample is returned when a sample payload carries neither
	// a quaternion nor an Euler pose.
	ErrInvalidSample = errors.New("headtracking: invalid sample")
)

// UnknownError is a sensor failure with a platform-supplied description.
type UnknownError struct {
	Description string
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	return fmt.Sprintf("headtracking: %s", e.Description)
}

// TrackerError wraps an error with tracker context.
type TrackerError struct {
	Tracker string
	Err     error
}

// Error implements the error interface.
func (e *TrackerError) Error() string {
	return fmt.Sprintf("headtracking [%s]: %v", e.Tracker, e.Err)
}

// Unwrap returns the underlying error.
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with tracker context.
func WrapError(tracker string, err error) error {
	if err == nil {
		return nil
	}
	return &TrackerError{Tracker: tracker, Err: err}
}

// Kind classifies a start error for logging: "not available",
// "permission denied", "stopped" or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAvailable):
		return "not available"
	case errors.Is(err, ErrPermissionDenied):
		return "permission denied"
	case errors.Is(err, ErrStopped):
		return "stopped"
	default:
		return "unknown"
	}
}
