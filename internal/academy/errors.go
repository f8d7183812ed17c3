package academy

import (
	"errors"
	"fmt"
)

// Guard failures. Both are purely local: no network call was attempted.
var (
	// ErrNoSession means no user is logged in. Front ends redirect to
	// the login screen.
	ErrNoSession = errors.New("not logged in")

	// ErrForbidden means the session user is not an admin. Front ends
	// surface a notification without redirecting.
	ErrForbidden = errors.New("admin role required")
)

// ValidationError reports a missing or malformed local input. Like guard
// failures it is raised before any network request is issued.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// IsValidation reports whether err is a local input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
