package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/journeyhub/journeyhub/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userIDKey contextKey = "user_id"

// userID extracts the authenticated user ID from the context.
// Returns empty string if the request is unauthenticated.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// sessionToken pulls the session credential from the Authorization
// header or, failing that, the session cookie set at join time. A header
// that is not a Bearer credential does not mask a valid cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.Split(h, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

// requireAuth validates the session token and adds the user ID to the
// request context, rejecting unauthenticated requests.
func requireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := sessionToken(r)
			if tokenString == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Code: "UNAUTHENTICATED", Message: auth.ErrMissingToken.Error(),
				})
				return
			}
			claims, err := tokens.ValidateSession(tokenString)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Code: "UNAUTHENTICATED", Message: auth.ErrInvalidToken.Error(),
				})
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// optionalAuth adds the user ID to the context when a valid session token
// is present, but lets unauthenticated requests through. The join
// endpoint uses it: a guest's first redemption has no identity, while a
// retry carries the session issued by the first attempt.
func optionalAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := sessionToken(r); tokenString != "" {
				if claims, err := tokens.ValidateSession(tokenString); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogging logs all incoming requests.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
