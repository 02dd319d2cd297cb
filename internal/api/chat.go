package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/cloudshift-ai/migbot/internal/chat"
	"github.com/cloudshift-ai/migbot/internal/log"
)

// ChatHandler handles the chat endpoints.
//
// Endpoints:
//   - POST /chat        - synchronous chat (JSON request/response)
//   - POST /chat/stream - streaming chat (Server-Sent Events)
type ChatHandler struct {
	svc    *chat.Service
	logger log.Logger
}

// NewChatHandler creates a chat handler backed by the orchestrator.
func NewChatHandler(svc *chat.Service, logger log.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /chat/stream", h.handleStream)
}

// ChatRequest is the request body for both chat endpoints.
type ChatRequest struct {
	Question  string `json:"question"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the synchronous chat response.
type ChatResponse struct {
	Answer    string `json:"answer"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id"`
}

// identity resolves the conversation key: the user ID when present,
// else the session ID, else a freshly minted session. The returned
// request has its session ID filled in either way.
func (req *ChatRequest) identity() string {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.UserID != "" {
		return req.UserID
	}
	return req.SessionID
}

// handleChat answers synchronously.
func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid request body: %v", err), h.logger)
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question is required", h.logger)
		return
	}

	id := req.identity()
	answer, err := h.svc.Ask(r.Context(), id, req.Question)
	if err != nil {
		h.logger.Error("chat failed", "identity", id, "error", err)
		writeError(w, http.StatusInternalServerError, "chat_failed", err.Error(), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:    answer,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	}, h.logger)
}

// handleStream answers over SSE. Each orchestrator event becomes one
// SSE message whose event name is the event type and whose data is
// the JSON-encoded event.
func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSSEEvent(w, flusher, chat.Event{Type: chat.EventError, Message: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Question == "" {
		writeSSEEvent(w, flusher, chat.Event{Type: chat.EventError, Message: "question is required"})
		return
	}

	id := req.identity()
	h.logger.Info("SSE stream started", "identity", id)

	err := h.svc.Stream(r.Context(), id, req.Question, func(ev chat.Event) error {
		select {
		case <-r.Context().Done():
			return r.Context().Err()
		default:
		}
		writeSSEEvent(w, flusher, ev)
		return nil
	})
	if err != nil {
		h.logger.Info("SSE stream aborted", "identity", id, "error", err)
		return
	}
	h.logger.Info("SSE stream completed", "identity", id)
}

// writeSSEEvent writes one event to the SSE stream and flushes it.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, ev chat.Event) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	flusher.Flush()
}
