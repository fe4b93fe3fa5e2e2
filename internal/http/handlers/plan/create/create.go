// Package create implements the HTTP handler for creating plans.
//
// The handler decodes and validates the JSON payload, reads the caller's
// role from the context and delegates to the catalog service, which
// evaluates the admin predicate and returns a typed forbidden result for
// everyone else.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"subscription-manager/internal/http/middlewarectx"
	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

// Handler serves plan creation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the catalog create operation.
type Service interface {
	Create(ctx context.Context, isAdmin bool, req models.CreatePlanRequest) (*models.Plan, error)
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
	const op = "handlers.plan.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreatePlanRequest
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

	plan, err := h.service.Create(r.Context(), middlewarectx.CallerIsAdmin(r.Context()), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		status, msg := response.FromError(err, "could not create plan")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("created plan", slog.Int64("id", plan.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(plan))
}
