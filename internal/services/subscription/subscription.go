// Package services contains the subscription lifecycle engine: subscribe,
// cancel, upgrade, and the active-list and history queries. Lifecycle
// events go out to the broker best-effort.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
	"subscription-manager/internal/rabbitmq"
)

// SubscriptionRepository defines the storage methods the engine needs. The
// compound mutations (upgrade's retire-and-create, subscribe's atomic
// check-and-create) are transactional inside the repository.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, userID, subscriptionID int64) (*models.Subscription, error)
	UpgradeSubscription(ctx context.Context, userID, oldID int64, newSub models.Subscription) (*models.Subscription, error)
	ListActiveSubscriptions(ctx context.Context, userID int64, now time.Time) ([]*models.SubscriptionInfo, error)
	ListHistory(ctx context.Context, userID int64, limit, offset int) ([]*models.SubscriptionInfo, error)
	CountSubscriptions(ctx context.Context, userID int64) (int, error)
}

// PlanGetter loads plans at subscribe and upgrade time.
type PlanGetter interface {
	Get(ctx context.Context, id int64) (*models.Plan, error)
}

// EventPublisher sends lifecycle events to the broker.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Event is the payload published for every lifecycle transition.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	UserID         int64     `json:"user_id"`
	SubscriptionID int64     `json:"subscription_id"`
	PlanID         int64     `json:"plan_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// SubscriptionService implements the lifecycle rules.
type SubscriptionService struct {
	repo   SubscriptionRepository
	plans  PlanGetter
	events EventPublisher
	log    *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, plans PlanGetter, events EventPublisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:   repo,
		plans:  plans,
		events: events,
		log:    log,
	}
}

// Subscribe creates the user's active subscription to a plan. The plan must
// exist; a second active subscription to the same plan is a conflict,
// enforced atomically by the storage layer.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64, req models.SubscribeRequest) (*models.Subscription, error) {
	plan, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	sub := models.NewSubscription(userID, plan, time.Now(), autoRenew)
	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new subscription",
		slog.Int64("id", created.ID), slog.Int64("user_id", userID), slog.Int64("plan_id", plan.ID))

	s.publish(rabbitmq.KeySubscriptionCreated, created)
	return created, nil
}

// Cancel transitions the caller's own active subscription to cancelled and
// switches auto-renew off. Terminal: a cancelled record has no further
// transitions.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, subscriptionID int64) (*models.Subscription, error) {
	cancelled, err := s.repo.CancelSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	s.log.Info("cancelled subscription", slog.Int64("id", subscriptionID), slog.Int64("user_id", userID))

	s.publish(rabbitmq.KeySubscriptionCancelled, cancelled)
	return cancelled, nil
}

// Upgrade retires the caller's active subscription and opens a new active
// one on the target plan. Both mutations apply as a single atomic unit in
// the storage layer; the new record auto-renews.
func (s *SubscriptionService) Upgrade(ctx context.Context, userID int64, req models.UpgradeRequest) (*models.Subscription, error) {
	newPlan, err := s.plans.Get(ctx, req.NewPlanID)
	if err != nil {
		return nil, err
	}

	newSub := models.NewSubscription(userID, newPlan, time.Now(), true)
	created, err := s.repo.UpgradeSubscription(ctx, userID, req.SubscriptionID, newSub)
	if err != nil {
		return nil, err
	}
	s.log.Info("upgraded subscription",
		slog.Int64("old_id", req.SubscriptionID), slog.Int64("new_id", created.ID),
		slog.Int64("user_id", userID), slog.Int64("plan_id", newPlan.ID))

	s.publish(rabbitmq.KeySubscriptionUpgraded, created)
	return created, nil
}

// ActiveSubscriptions returns the user's currently active, non-expired
// subscriptions, newest first.
func (s *SubscriptionService) ActiveSubscriptions(ctx context.Context, userID int64) ([]*models.SubscriptionInfo, error) {
	return s.repo.ListActiveSubscriptions(ctx, userID, time.Now().UTC())
}

// History pagination bounds.
const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// History returns one page of the user's subscription records across all
// statuses, newest first, with the total count and page count.
func (s *SubscriptionService) History(ctx context.Context, userID int64, page, perPage int) (*models.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	offset := (page - 1) * perPage

	entries, err := s.repo.ListHistory(ctx, userID, perPage, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.HistoryPage{
		Subscriptions: entries,
		Total:         total,
		Page:          page,
		PerPage:       perPage,
		TotalPages:    (total + perPage - 1) / perPage,
	}, nil
}

// publish sends a lifecycle event best-effort: a broker failure is logged
// and never surfaced to the caller.
func (s *SubscriptionService) publish(routingKey string, sub *models.Subscription) {
	event := Event{
		ID:             uuid.NewString(),
		Type:           routingKey,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		PlanID:         sub.PlanID,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.events.Publish(routingKey, event); err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}
