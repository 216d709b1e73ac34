package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bdang10/Carely-AI/internal/patients"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// PatientStore is the subset of the patients repository the handler needs.
type PatientStore interface {
	Create(ctx context.Context, req patients.CreatePatientRequest) (*patients.Patient, error)
	GetByEmail(ctx context.Context, email string) (*patients.Patient, error)
}

// Handler exposes register and login endpoints.
type Handler struct {
	store  PatientStore
	issuer *TokenIssuer
	logger *logging.Logger
}

// NewHandler creates the auth HTTP handler.
func NewHandler(store PatientStore, issuer *TokenIssuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, issuer: issuer, logger: logger.Component("auth")}
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	Patient     *patients.Patient `json:"patient,omitempty"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.FirstName == "" || req.LastName == "" {
		http.Error(w, "email, first_name, and last_name are required", http.StatusBadRequest)
		return
	}
	dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		http.Error(w, "date_of_birth must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patient, err := h.store.Create(r.Context(), patients.CreatePatientRequest{
		Email:          req.Email,
		HashedPassword: hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    dateOfBirth,
		PhoneNumber:    req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, patients.ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.Error("patient registration failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, err := h.issuer.Issue(patient.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(TokenResponse{AccessToken: token, TokenType: "bearer", Patient: patient})
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.store.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !CheckPassword(patient.HashedPassword, req.Password) {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.issuer.Issue(patient.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{AccessToken: token, TokenType: "bearer", Patient: patient})
}
