package api

import (
	"net/http"

	"github.com/cloudshift-ai/migbot/internal/log"
)

// HealthHandler handles status and liveness endpoints.
type HealthHandler struct {
	logger log.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(logger log.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.status)
	mux.HandleFunc("GET /health", h.liveness)
}

// StatusResponse is the root status payload.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// status reports that the service is up. The index is rebuilt before
// the server starts, so reachability implies readiness.
func (h *HealthHandler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Service: "migbot"}, h.logger)
}

// liveness answers 200 while the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
