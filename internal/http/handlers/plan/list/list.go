// Package list implements the HTTP handler returning all active plans,
// optionally narrowed by plan type. Open endpoint, no auth.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

// Handler serves plan listing requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the catalog listing operation.
type Service interface {
	List(ctx context.Context, typeFilter string) ([]*models.Plan, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	typeFilter := r.URL.Query().Get("type")

	plans, err := h.service.List(r.Context(), typeFilter)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		status, msg := response.FromError(err, "could not list plans")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("listed plans", slog.Int("count", len(plans)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans": plans,
		"count": len(plans),
	}))
}
