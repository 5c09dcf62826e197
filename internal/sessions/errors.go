package sessions

import (
	"errors"
	"net/http"

	"github.com/parlorgames/byline/internal/pipeline"
	"github.com/parlorgames/byline/internal/state"
)

// Domain errors for session operations.
var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidInput = errors.New("invalid session input")
	ErrNoDatabase   = errors.New("session listing requires a database connection")
)

// MapHTTPStatus maps session and pipeline errors to HTTP status codes.
// Conflict covers every ordering violation: approving an idle session,
// naming the wrong checkpoint, rewinding to one never granted.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, state.ErrInvalidApproval):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoPending),
		errors.Is(err, pipeline.ErrApprovalMismatch),
		errors.Is(err, pipeline.ErrNotReached):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
