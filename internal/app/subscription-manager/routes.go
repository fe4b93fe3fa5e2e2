package subscriptionmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"subscription-manager/internal/http/handlers/auth/login"
	"subscription-manager/internal/http/handlers/auth/register"
	plancreate "subscription-manager/internal/http/handlers/plan/create"
	planlist "subscription-manager/internal/http/handlers/plan/list"
	planread "subscription-manager/internal/http/handlers/plan/read"
	planremove "subscription-manager/internal/http/handlers/plan/remove"
	planupdate "subscription-manager/internal/http/handlers/plan/update"
	"subscription-manager/internal/http/handlers/subscription/active"
	"subscription-manager/internal/http/handlers/subscription/cancel"
	"subscription-manager/internal/http/handlers/subscription/history"
	"subscription-manager/internal/http/handlers/subscription/subscribe"
	"subscription-manager/internal/http/handlers/subscription/upgrade"
	userlist "subscription-manager/internal/http/handlers/user/list"
	"subscription-manager/internal/http/handlers/user/me"
	"subscription-manager/internal/http/middlewarectx"
	authservice "subscription-manager/internal/services/auth"
	planservice "subscription-manager/internal/services/plan"
	subservice "subscription-manager/internal/services/subscription"
)

// RegisterRoutes mounts all application routes on the router.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	planService *planservice.PlanService,
	subscriptionService *subservice.SubscriptionService) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Open endpoints
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/plans", planlist.New(logger, planService).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, planService).ServeHTTP)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/plans", plancreate.New(logger, planService).ServeHTTP)
			r.Put("/plans/{id}", planupdate.New(logger, planService).ServeHTTP)
			r.Delete("/plans/{id}", planremove.New(logger, planService).ServeHTTP)

			r.Post("/subscribe", subscribe.New(logger, subscriptionService).ServeHTTP)
			r.Get("/my-subscription", active.New(logger, subscriptionService).ServeHTTP)
			r.Post("/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
			r.Get("/history", history.New(logger, subscriptionService).ServeHTTP)
			r.Post("/upgrade", upgrade.New(logger, subscriptionService).ServeHTTP)

			r.Get("/users/me", me.New(logger, authService).ServeHTTP)
			r.Get("/users", userlist.New(logger, authService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
