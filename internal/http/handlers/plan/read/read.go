// Package read implements the HTTP handler returning a single plan by id.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service describes the single-plan read operation.
type Service interface {
	Get(ctx context.Context, id int64) (*models.Plan, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.read"
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

	plan, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to read plan", sl.Err(err))
		status, msg := response.FromError(err, "could not read plan")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("read plan", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(plan))
}
