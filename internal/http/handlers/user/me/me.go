// Package me implements the HTTP handler returning the caller's profile.
package me

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

// Service describes the profile lookup.
type Service interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.me"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.CallerID(r.Context())
	if !ok {
		log.Error("missing user id in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to fetch user", sl.Err(err))
		status, msg := response.FromError(err, "could not fetch user")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(user))
}
