package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized marks a session rejection: the server refused the
	// presented credential. The client has already cleared local state by
	// the time a caller sees this.
	ErrUnauthorized = errors.New("session rejected")

	// ErrTimeout marks a request that exceeded the client timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrUnreachable marks a request that got no response at all.
	ErrUnreachable = errors.New("server unreachable")
)

// APIError carries a non-401 error response through to the caller
// unchanged; callers interpret domain failures themselves.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}
