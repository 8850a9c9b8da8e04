// Package output formats command results and errors for the terminal or for scripts.
package output

// Exit codes.
const (
	ExitOK       = 0 // Success
	ExitUsage    = 1 // Invalid arguments or flags
	ExitNotFound = 2 // Resource not found
	ExitNetwork  = 6 // Connection/DNS/timeout error
	ExitAPI      = 7 // Server returned error
)

// Error codes for JSON envelope.
const (
	CodeUsage    = "usage"
	CodeNotFound = "not_found"
	CodeNetwork  = "network"
	CodeAPI      = "api_error"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeNotFound:
		return ExitNotFound
	case CodeNetwork:
		return ExitNetwork
	default:
		return ExitAPI
	}
}
