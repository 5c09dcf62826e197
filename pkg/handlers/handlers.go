// Package handlers provides shared HTTP response helpers used by every
// domain handler: JSON encoding with consistent headers and structured
// error payloads that never leak a stack trace.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes data as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already written at this point; nothing to do but log
		slog.Default().Error("encode response failed", "error", err)
	}
}

// RespondError writes an error as a JSON response body {"error": message}
// with the given status code, logging server-side failures.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}

	RespondJSON(w, status, map[string]string{"error": err.Error()})
}
