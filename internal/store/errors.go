package store

import (
	"errors"
	"net/http"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownDriver   = errors.New("unknown store driver")
	ErrEncodeState     = errors.New("failed to encode workflow state")
	ErrDecodeState     = errors.New("failed to decode workflow state")
)

// MapHTTPStatus translates store errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
