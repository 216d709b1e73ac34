package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bdang10/Carely-AI/internal/auth"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// Store is the repository surface the handler depends on.
type Store interface {
	GetForPatient(ctx context.Context, recordID, patientID int64) (*MedicalRecord, error)
	ListForPatient(ctx context.Context, patientID int64, limit int) ([]*MedicalRecord, error)
}

// Handler serves the medical-records endpoints for the authenticated patient.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("records_handler")}
}

// List handles GET /api/v1/records.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	recs, err := h.store.ListForPatient(r.Context(), patientID, limit)
	if err != nil {
		h.logger.Error("list medical records failed", "error", err, "patient_id", patientID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*MedicalRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(recs); err != nil {
		h.logger.Error("encode medical records failed", "error", err)
	}
}

// Get handles GET /api/v1/records/{recordID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	patientID, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil || recordID <= 0 {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}

	rec, err := h.store.GetForPatient(r.Context(), recordID, patientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "medical record not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get medical record failed", "error", err, "record_id", recordID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		h.logger.Error("encode medical record failed", "error", err)
	}
}
