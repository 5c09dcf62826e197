package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrInvalidMaxResults indicates an unparseable or out-of-range max_results value.
	ErrInvalidMaxResults = errors.New("invalid max_results")
)

// ParseMaxResults parses a raw max_results query value, clamping to limit.
// An empty value yields the configured limit unchanged.
func ParseMaxResults(raw string, limit int32) (int32, error) {
	if raw == "" {
		return limit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxResults, raw)
	}

	return min(int32(n), limit), nil
}

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrInvalidMaxResults) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
