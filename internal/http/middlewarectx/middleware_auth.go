// Package middlewarectx contains the HTTP middleware that resolves the
// bearer token into a user identity once per request.
//
// JWTMiddleware checks the Authorization header, validates the token and,
// on success, stores the user id and role in the request context for the
// handlers. Failures get HTTP 401 with a message.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/jwt"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

// Key is the type for request context keys.
type Key string

const (
	// UserID is the context key for the caller's user id (int64).
	UserID Key = "user_id"
	// Role is the context key for the caller's role (string).
	Role Key = "role"
)

// Service validates a bearer token and returns its claims.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware returns middleware that checks the JWT in the Authorization
// header and stores the resolved identity in the request context.
func JWTMiddleware(tokens Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := tokens.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserID, claims.UserID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerID extracts the authenticated user id from the request context.
func CallerID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserID).(int64)
	return id, ok
}

// CallerIsAdmin reports whether the authenticated caller has the admin role.
func CallerIsAdmin(ctx context.Context) bool {
	role, ok := ctx.Value(Role).(string)
	return ok && role == models.RoleAdmin
}
