// Package cancel implements the HTTP handler that cancels one of the
// caller's active subscriptions.
package cancel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"subscription-manager/internal/http/middlewarectx"
	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the cancel operation.
type Service interface {
	Cancel(ctx context.Context, userID, subscriptionID int64) (*models.Subscription, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
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

	var req models.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.Cancel(r.Context(), userID, req.SubscriptionID)
	if err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		status, msg := response.FromError(err, "could not cancel subscription")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("cancelled subscription", slog.Int64("subscription_id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(sub.View(time.Now())))
}
