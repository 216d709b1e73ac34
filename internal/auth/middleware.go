package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const patientIDKey contextKey = "patientID"

// PatientJWT enforces a Bearer access token and stores the patient id in the
// request context.
func PatientJWT(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			patientID, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), patientIDKey, patientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PatientIDFromContext returns the authenticated patient id if present.
func PatientIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(patientIDKey).(int64)
	return id, ok
}

// WithPatientID injects a patient id into the context. Test helper.
func WithPatientID(ctx context.Context, patientID int64) context.Context {
	return context.WithValue(ctx, patientIDKey, patientID)
}
