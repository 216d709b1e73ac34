// Package providers exposes the clinic's care-provider directory.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

// ErrNotFound is returned when no active provider matches the ID.
var ErrNotFound = errors.New("provider not found")

// Provider is a doctor or clinician patients can book with.
type Provider struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Specialty   string    `json:"specialty,omitempty"`
	Address     string    `json:"address,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads providers from Postgres.
type Repository struct {
	db     Querier
	logger *logging.Logger
}

func NewRepository(db Querier, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger.Component("providers")}
}

const providerColumns = `id, name, email, phone_number, specialty, address, is_active, created_at, updated_at`

// List returns all active providers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE is_active = true ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetByID returns a single active provider.
func (r *Repository) GetByID(ctx context.Context, providerID int64) (*Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1 AND is_active = true`

	p, err := scanProvider(r.db.QueryRow(ctx, query, providerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return p, nil
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PhoneNumber, &p.Specialty, &p.Address,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Store is the repository surface the handler depends on.
type Store interface {
	List(ctx context.Context) ([]Provider, error)
	GetByID(ctx context.Context, providerID int64) (*Provider, error)
}

// Handler serves the provider directory endpoints.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("providers_handler")}
}

// List handles GET /api/v1/providers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	provs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list providers failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if provs == nil {
		provs = []Provider{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(provs); err != nil {
		h.logger.Error("encode providers failed", "error", err)
	}
}

// Get handles GET /api/v1/providers/{providerID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(chi.URLParam(r, "providerID"), 10, 64)
	if err != nil || providerID <= 0 {
		http.Error(w, "invalid provider id", http.StatusBadRequest)
		return
	}

	p, err := h.store.GetByID(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get provider failed", "error", err, "provider_id", providerID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.logger.Error("encode provider failed", "error", err)
	}
}
