package api

import (
	"net/http"

	"github.com/cloudshift-ai/migbot/internal/log"
	"github.com/cloudshift-ai/migbot/internal/memory"
)

// HistoryHandler exposes the conversation memory buffer.
//
// Failures here answer 200 with an {error} payload rather than an
// HTTP fault status; history is a convenience surface and clients
// treat it as best-effort.
type HistoryHandler struct {
	mem    memory.Store
	logger log.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(mem memory.Store, logger log.Logger) *HistoryHandler {
	return &HistoryHandler{mem: mem, logger: logger}
}

// RegisterRoutes registers history routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /chat/history/{identity}", h.handleGet)
	mux.HandleFunc("DELETE /chat/history/{identity}", h.handleClear)
}

// HistoryResponse is the GET payload.
type HistoryResponse struct {
	Identity string        `json:"identity"`
	History  []memory.Turn `json:"history"`
}

// MessageResponse is the DELETE payload.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *HistoryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("identity")
	if id == "" {
		writeJSON(w, http.StatusOK, ErrorResponse{Error: "identity is required"}, h.logger)
		return
	}

	history := h.mem.History(id)
	if history == nil {
		history = []memory.Turn{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Identity: id, History: history}, h.logger)
}

func (h *HistoryHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("identity")
	if id == "" {
		writeJSON(w, http.StatusOK, ErrorResponse{Error: "identity is required"}, h.logger)
		return
	}

	h.mem.Clear(id)
	h.logger.Info("conversation cleared", "identity", id)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "conversation history cleared"}, h.logger)
}
