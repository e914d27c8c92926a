// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap these sentinels with context; handlers map them to HTTP
// statuses and generic response messages that do not leak internal detail.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access denied")
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("not found")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrMalformedToken  = errors.New("malformed token")
	ErrInternal        = errors.New("internal error")
)

// HTTPStatus maps an error to the status code the boundary layer should
// return. Anything outside the taxonomy is treated as an internal failure.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrMalformedToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing text for an error. Wrapped detail is
// intentionally dropped; only the sentinel's own text ever reaches a client.
func Message(err error) string {
	for _, sentinel := range []error{
		ErrUnauthenticated,
		ErrForbidden,
		ErrValidation,
		ErrNotFound,
		ErrInvalidToken,
		ErrMalformedToken,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrInternal.Error()
}
