// Package subscribe implements the HTTP handler that starts a new
// subscription for the authenticated user.
package subscribe

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

// Service describes the subscribe operation.
type Service interface {
	Subscribe(ctx context.Context, userID int64, req models.SubscribeRequest) (*models.Subscription, error)
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
	const op = "handlers.subscription.subscribe"
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

	var req models.SubscribeRequest
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

	sub, err := h.service.Subscribe(r.Context(), userID, req)
	if err != nil {
		log.Error("failed to subscribe", sl.Err(err))
		status, msg := response.FromError(err, "could not create subscription")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("created subscription",
		slog.Int64("subscription_id", sub.ID),
		slog.Int64("plan_id", sub.PlanID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(sub.View(time.Now())))
}
