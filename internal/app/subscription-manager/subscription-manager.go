// Package subscriptionmanager wires the service dependencies together and
// owns the HTTP server lifecycle.
package subscriptionmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"subscription-manager/internal/cache"
	"subscription-manager/internal/config"
	"subscription-manager/internal/lib/jwt"
	"subscription-manager/internal/migrations"
	"subscription-manager/internal/rabbitmq"
	authservice "subscription-manager/internal/services/auth"
	planservice "subscription-manager/internal/services/plan"
	subservice "subscription-manager/internal/services/subscription"
	"subscription-manager/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	rabbit *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rabbitConn, err := rabbitmq.Connect(cfg.URLRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.DefaultQueues)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, logger)
	planService := planservice.NewPlanService(db, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, planService, publisher, logger)

	if err := authService.EnsureAdmin(ctx, cfg.AdminBootstrap.Email, cfg.AdminBootstrap.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, planService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		rabbit: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		if cerr := a.rabbit.Close(); cerr != nil {
			a.logger.Warn("failed to close rabbitmq connection", slog.String("error", cerr.Error()))
		}
		return err
	}
}
