package evidence

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidLayer   = errors.New("invalid evidence layer")
	ErrBundleNotFound = errors.New("evidence bundle not found")
	ErrMalformedBundle = errors.New("malformed evidence bundle")
)

// MapHTTPStatus translates evidence errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrBundleNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidLayer), errors.Is(err, ErrMalformedBundle):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
