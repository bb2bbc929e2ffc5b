package errs

import (
	"errors"
	"net/http"
)

// Sentinel error classes for the forum engine. Handlers and the client
// wrap these with context via fmt.Errorf("...: %w", err); callers branch
// with errors.Is.
var (
	// ErrValidation marks malformed input (empty content, unknown type,
	// unsupported emoji). Not retried; shown to the user.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks an authorization failure. Not retried.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a stale or never-existed event/message reference.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a missing or invalid caller identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransient marks a network or server failure during a poll. The
	// scheduler retries it on the next tick without surfacing an error.
	ErrTransient = errors.New("transient failure")
)

// HTTPStatus maps an error to the status code the API serves for it.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus maps an HTTP status code back to a sentinel; the client uses
// it to rebuild the taxonomy from API responses. Codes in the 5xx range
// and unknown codes map to ErrTransient.
func FromStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return ErrTransient
	}
}
