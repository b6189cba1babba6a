package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"chainpass/pkg/requestcontext"
)

// SessionVerifier validates a session token and returns the claims it carries.
type SessionVerifier interface {
	Verify(token string) (*SessionClaims, error)
}

// SessionClaims is the subset of token claims the middleware propagates.
type SessionClaims struct {
	Email      string
	Name       string
	AuthMethod string
}

// GetSubjectEmail retrieves the authenticated subject's email from the context.
func GetSubjectEmail(ctx context.Context) string {
	return requestcontext.SubjectEmail(ctx)
}

// RequireAuth gates protected routes behind a valid session token.
func RequireAuth(verifier SessionVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithSubjectEmail(ctx, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
