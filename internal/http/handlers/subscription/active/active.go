// Package active implements the HTTP handler returning the caller's
// currently active subscriptions. Responds 404 when there are none.
package active

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

// Service describes the active subscriptions lookup.
type Service interface {
	ActiveSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.active"
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

	subs, err := h.service.ActiveSubscriptions(r.Context(), userID)
	if err != nil {
		log.Error("failed to list active subscriptions", sl.Err(err))
		status, msg := response.FromError(err, "could not fetch subscriptions")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	if len(subs) == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no active subscriptions found"))
		return
	}

	log.Info("listed active subscriptions", slog.Int("count", len(subs)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscriptions": subs,
		"count":         len(subs),
	}))
}
