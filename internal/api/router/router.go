// Package router assembles the HTTP surface of the Carely API.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bdang10/Carely-AI/internal/appointments"
	"github.com/bdang10/Carely-AI/internal/auth"
	"github.com/bdang10/Carely-AI/internal/chat"
	httpmiddleware "github.com/bdang10/Carely-AI/internal/http/middleware"
	"github.com/bdang10/Carely-AI/internal/patients"
	"github.com/bdang10/Carely-AI/internal/providers"
	"github.com/bdang10/Carely-AI/internal/records"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	AuthHandler         *auth.Handler
	TokenIssuer         *auth.TokenIssuer
	ChatHandler         *chat.Handler
	PatientsHandler     *patients.Handler
	AppointmentsHandler *appointments.Handler
	RecordsHandler      *records.Handler
	ProvidersHandler    *providers.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitPerSecond of 0 disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Optional health probes.
	DB    Pinger
	Redis Pinger
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/api/v1/auth", func(r chi.Router) {
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
			})
		}
	})

	// Patient endpoints, protected by JWT.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.PatientJWT(cfg.TokenIssuer))

		if cfg.ChatHandler != nil {
			api.Post("/chat", cfg.ChatHandler.PostMessage)
		}
		if cfg.PatientsHandler != nil {
			api.Route("/patients/me", func(r chi.Router) {
				r.Get("/", cfg.PatientsHandler.GetProfile)
				r.Patch("/", cfg.PatientsHandler.UpdateProfile)
			})
		}
		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
				r.Patch("/{appointmentID}", cfg.AppointmentsHandler.Update)
				r.Delete("/{appointmentID}", cfg.AppointmentsHandler.Cancel)
			})
		}
		if cfg.RecordsHandler != nil {
			api.Route("/records", func(r chi.Router) {
				r.Get("/", cfg.RecordsHandler.List)
				r.Get("/{recordID}", cfg.RecordsHandler.Get)
			})
		}
		if cfg.ProvidersHandler != nil {
			api.Route("/providers", func(r chi.Router) {
				r.Get("/", cfg.ProvidersHandler.List)
				r.Get("/{providerID}", cfg.ProvidersHandler.Get)
			})
		}
	})

	return r
}

func healthHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{}
		probe := func(name string, p Pinger) {
			if p == nil {
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				status = http.StatusServiceUnavailable
				return
			}
			checks[name] = "ok"
		}
		probe("database", cfg.DB)
		probe("redis", cfg.Redis)

		body := map[string]any{"status": "ok", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
