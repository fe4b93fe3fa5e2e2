// Package remove implements the HTTP handler for deleting a plan.
package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"subscription-manager/internal/http/middlewarectx"
	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the catalog delete operation.
type Service interface {
	Delete(ctx context.Context, isAdmin bool, id int64) error
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.Delete(r.Context(), middlewarectx.CallerIsAdmin(r.Context()), id); err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		status, msg := response.FromError(err, "could not delete plan")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("deleted plan", slog.Int64("id", id))
	render.JSON(w, r, response.OK())
}
