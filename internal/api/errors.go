package api

import (
	"errors"
	"fmt"
)

// ErrUnreachable marks transport-level failures: timeouts, refused
// connections, DNS errors, or a success response whose body could not be
// parsed. Callers should surface a generic connectivity message.
var ErrUnreachable = errors.New("backend unreachable")

// ServerError is a failure the backend reported with a non-2xx status.
// Message is taken from the response's {error} payload when parseable,
// otherwise it is empty and callers fall back to a generic message.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}

// AsServerError unwraps a ServerError from err, if present.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsUnreachable reports whether err is a transport failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnreachable, err)
}
