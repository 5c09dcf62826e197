package artifacts

import (
	"errors"
	"net/http"

	"github.com/parlorgames/byline/pkg/storage"
)

// Domain errors for artifact operations.
var (
	ErrNotFound  = errors.New("artifact not found")
	ErrDuplicate = errors.New("artifact already exists")
)

// MapHTTPStatus maps artifact domain errors to HTTP status codes. A storage
// miss maps to 404 the same as a missing row: either way the artifact is
// not retrievable.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
