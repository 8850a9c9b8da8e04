package wp

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason tags why a gateway call failed.
type Reason string

const (
	// ReasonTransport covers DNS, connection and body read failures.
	ReasonTransport Reason = "transport"
	// ReasonStatus means the API answered with a non-success status.
	ReasonStatus Reason = "status"
	// ReasonDecode means the body was not the JSON we expected.
	ReasonDecode Reason = "decode"
)

// Error is returned by every Client method that fails.
type Error struct {
	Reason     Reason
	Method     string
	URL        string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonStatus:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	case ReasonDecode:
		return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.URL, e.Cause)
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ReasonOf returns the failure reason of err, or "" when err is not a gateway error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Reason == ReasonStatus && e.StatusCode == http.StatusNotFound
}
