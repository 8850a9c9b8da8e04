package output

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cfblog/cfblog-web/internal/wp"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func ErrNetwork(cause error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "Network error",
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

func ErrAPI(status int, msg string) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    msg,
		HTTPStatus: status,
	}
}

// FromGateway classifies a gateway failure.
func FromGateway(err error) *Error {
	var ge *wp.Error
	if !errors.As(err, &ge) {
		return AsError(err)
	}
	switch ge.Reason {
	case wp.ReasonTransport:
		e := ErrNetwork(err)
		e.Hint = "Check that the API at " + ge.URL + " is reachable (--api-url, CFBLOG_API_URL)"
		return e
	case wp.ReasonStatus:
		if ge.StatusCode == http.StatusNotFound {
			return &Error{Code: CodeNotFound, Message: "Not found: " + ge.URL, HTTPStatus: ge.StatusCode, Cause: err}
		}
		e := ErrAPI(ge.StatusCode, fmt.Sprintf("API returned %d for %s %s", ge.StatusCode, ge.Method, ge.URL))
		e.Cause = err
		return e
	default:
		return &Error{Code: CodeAPI, Message: "Unexpected API response", Hint: ge.Error(), Cause: err}
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeAPI,
		Message: err.Error(),
		Cause:   err,
	}
}
