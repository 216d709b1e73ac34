package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bdang10/Carely-AI/internal/auth"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// Handler exposes the chat endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the chat HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger.Component("chat.handler")}
}

// PostMessage handles POST /api/v1/chat.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	patientID, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.HandleMessage(r.Context(), patientID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			http.Error(w, "message cannot be empty", http.StatusBadRequest)
		case errors.Is(err, ErrConversationNotFound):
			http.Error(w, "conversation not found", http.StatusNotFound)
		default:
			h.logger.Error("chat turn failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
