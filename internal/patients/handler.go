package patients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bdang10/Carely-AI/internal/auth"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// Store is the repository surface the handler needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Patient, error)
	UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*Patient, error)
}

// Handler exposes the patient profile endpoints.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates the patients HTTP handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("patients")}
}

// GetProfile handles GET /api/v1/patients/me.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	patientID, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	patient, err := h.store.GetByID(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("profile load failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patient)
}

// UpdateProfile handles PATCH /api/v1/patients/me.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	patientID, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.store.UpdateProfile(r.Context(), patientID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("profile update failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patient)
}
