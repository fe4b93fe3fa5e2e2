// Package list implements the admin-only HTTP handler listing all users.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"subscription-manager/internal/http/middlewarectx"
	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the user listing operation.
type Service interface {
	ListUsers(ctx context.Context, isAdmin bool) ([]*models.User, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users, err := h.service.ListUsers(r.Context(), middlewarectx.CallerIsAdmin(r.Context()))
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		status, msg := response.FromError(err, "could not list users")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("listed users", slog.Int("count", len(users)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"users": users,
		"count": len(users),
	}))
}
