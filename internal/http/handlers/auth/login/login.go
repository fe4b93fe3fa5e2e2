// Package login implements the HTTP handler that exchanges credentials
// for a JWT access token.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"subscription-manager/internal/http/response"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service describes the login operation.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
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
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LoginRequest
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

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("failed to login", sl.Err(err))
		status, msg := response.FromError(err, "could not login")
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("user logged in", slog.Int64("user_id", user.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role(),
		},
	}))
}
