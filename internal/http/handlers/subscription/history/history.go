// Package history implements the HTTP handler returning the caller's
// paginated subscription history.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

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

// Service describes the history operation.
type Service interface {
	History(ctx context.Context, userID int64, page, perPage int) (*models.HistoryPage, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"
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

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 0)

	result, err := h.service.History(r.Context(), userID, page, perPage)
	if err != nil {
		log.Error("failed to fetch history", sl.Err(err))
		status, msg := response.FromError(err, "could not fetch history")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("fetched history",
		slog.Int("page", result.Page),
		slog.Int("total", result.Total))
	render.JSON(w, r, response.StatusOKWithData(result))
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
