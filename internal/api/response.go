package api

import (
	"encoding/json"
	"net/http"

	"github.com/cloudshift-ai/migbot/internal/log"
)

// writeJSON writes a JSON response with the given status code. An
// encoding failure after WriteHeader cannot reach the client; it is
// only logged.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response with an HTTP fault status.
func writeError(w http.ResponseWriter, status int, err, message string, logger log.Logger) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message}, logger)
}
