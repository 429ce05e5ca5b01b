package authz

import "errors"

// ErrUnauthenticated is returned when no actor is present. Callers decide
// presentation: web routes redirect to the login page, API routes send 401.
var ErrUnauthenticated = errors.New("authentication required")

// ForbiddenError is returned when an authenticated actor lacks the required
// role or permission. Reason is a human-readable explanation suitable for
// the 403 response body.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// Forbidden creates a ForbiddenError with the given reason.
func Forbidden(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}
