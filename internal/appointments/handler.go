package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bdang10/Carely-AI/internal/auth"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// Store is the repository surface the handler depends on.
type Store interface {
	Create(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error)
	GetForPatient(ctx context.Context, patientID, appointmentID int64) (*Appointment, error)
	ListForPatient(ctx context.Context, patientID int64, limit int) ([]Appointment, error)
	Cancel(ctx context.Context, patientID, appointmentID int64) (*Appointment, error)
	Update(ctx context.Context, patientID, appointmentID int64, req UpdateAppointmentRequest) (*Appointment, error)
}

// Handler serves the appointment CRUD endpoints for the authenticated patient.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("appointments_handler")}
}

// List handles GET /api/v1/appointments.
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

	appts, err := h.store.ListForPatient(r.Context(), patientID, limit)
	if err != nil {
		h.logger.Error("list appointments failed", "error", err, "patient_id", patientID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, appts, h.logger)
}

// Create handles POST /api/v1/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	patientID, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.PatientID = patientID

	if strings.TrimSpace(req.DoctorName) == "" {
		http.Error(w, "doctor_name is required", http.StatusBadRequest)
		return
	}
	if req.ScheduledTime.IsZero() || req.ScheduledTime.Before(time.Now()) {
		http.Error(w, "scheduled_time must be in the future", http.StatusBadRequest)
		return
	}

	appt, err := h.store.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create appointment failed", "error", err, "patient_id", patientID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, appt, h.logger)
}

// Get handles GET /api/v1/appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.scopedIDs(w, r)
	if !ok {
		return
	}

	appt, err := h.store.GetForPatient(r.Context(), patientID, appointmentID)
	if err != nil {
		h.respondStoreError(w, err, appointmentID)
		return
	}
	writeJSON(w, http.StatusOK, appt, h.logger)
}

// Update handles PATCH /api/v1/appointments/{appointmentID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.scopedIDs(w, r)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ScheduledTime != nil && req.ScheduledTime.Before(time.Now()) {
		http.Error(w, "scheduled_time must be in the future", http.StatusBadRequest)
		return
	}

	appt, err := h.store.Update(r.Context(), patientID, appointmentID, req)
	if err != nil {
		h.respondStoreError(w, err, appointmentID)
		return
	}
	writeJSON(w, http.StatusOK, appt, h.logger)
}

// Cancel handles DELETE /api/v1/appointments/{appointmentID}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.scopedIDs(w, r)
	if !ok {
		return
	}

	appt, err := h.store.Cancel(r.Context(), patientID, appointmentID)
	if err != nil {
		h.respondStoreError(w, err, appointmentID)
		return
	}
	writeJSON(w, http.StatusOK, appt, h.logger)
}

func (h *Handler) scopedIDs(w http.ResponseWriter, r *http.Request) (patientID, appointmentID int64, ok bool) {
	patientID, ok = auth.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}
	appointmentID, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil || appointmentID <= 0 {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return 0, 0, false
	}
	return patientID, appointmentID, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error, appointmentID int64) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	h.logger.Error("appointment operation failed", "error", err, "appointment_id", appointmentID)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *logging.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encode response failed", "error", err)
	}
}
