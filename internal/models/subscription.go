package models

import "time"

// Subscription lifecycle statuses. Nothing in this service stores
// StatusExpired: expiry is a derived time-window check, not a stored
// transition.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusUpgraded  = "upgraded"
)

// Subscription is a time-bounded grant of a plan to a user. The record is
// the unit of lifecycle state; only the lifecycle service mutates it.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    int64     `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	AutoRenew bool      `json:"auto_renew"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubscription builds a fully formed active subscription from a plan and
// a start time: the end date is start + plan.DurationDays. All timestamps
// are normalized to UTC.
func NewSubscription(userID int64, plan *Plan, start time.Time, autoRenew bool) Subscription {
	start = start.UTC()
	return Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, plan.DurationDays),
		Status:    StatusActive,
		AutoRenew: autoRenew,
	}
}

// IsActive reports whether the subscription is the user's current grant:
// the stored status is active and now has not passed the end date. Both
// sides of the comparison are taken in UTC.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == StatusActive && !now.UTC().After(s.EndDate.UTC())
}

// SubscriptionView is the serialized form of a subscription, carrying the
// derived is_active flag alongside the stored fields.
type SubscriptionView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    int64     `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	AutoRenew bool      `json:"auto_renew"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View evaluates the active predicate at now and returns the response form.
func (s *Subscription) View(now time.Time) SubscriptionView {
	return SubscriptionView{
		ID:        s.ID,
		UserID:    s.UserID,
		PlanID:    s.PlanID,
		StartDate: s.StartDate.UTC(),
		EndDate:   s.EndDate.UTC(),
		Status:    s.Status,
		AutoRenew: s.AutoRenew,
		IsActive:  s.IsActive(now),
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

// SubscriptionInfo is a subscription row joined with its plan's name and
// price, as returned by the active-list and history queries.
type SubscriptionInfo struct {
	ID        int64     `json:"id"`
	PlanName  string    `json:"plan_name"`
	PlanPrice float64   `json:"plan_price"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	AutoRenew bool      `json:"auto_renew"`
}

// HistoryPage is one page of a user's subscription history.
type HistoryPage struct {
	Subscriptions []*SubscriptionInfo `json:"subscriptions"`
	Total         int                 `json:"total"`
	Page          int                 `json:"page"`
	PerPage       int                 `json:"per_page"`
	TotalPages    int                 `json:"total_pages"`
}
