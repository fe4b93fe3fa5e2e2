package models

// Request types receive data from JSON payloads before validation and
// conversion into domain records. Optional fields are pointers so a partial
// update can tell "absent" apart from a zero value.

// CreatePlanRequest carries the fields for a new plan. Price is a pointer
// so a free plan (price 0) still satisfies the required check.
type CreatePlanRequest struct {
	Name         string          `json:"name" validate:"required"`
	Type         string          `json:"type" validate:"required,oneof=free basic pro"`
	Description  string          `json:"description"`
	Price        *float64        `json:"price" validate:"required,gte=0"`
	DurationDays int             `json:"duration_days" validate:"required,gt=0"`
	Features     map[string]bool `json:"features"`
	IsActive     *bool           `json:"is_active"`
}

// UpdatePlanRequest applies only the supplied fields; type is re-validated
// when present.
type UpdatePlanRequest struct {
	Name         *string         `json:"name" validate:"omitempty"`
	Type         *string         `json:"type" validate:"omitempty,oneof=free basic pro"`
	Description  *string         `json:"description"`
	Price        *float64        `json:"price" validate:"omitempty,gte=0"`
	DurationDays *int            `json:"duration_days" validate:"omitempty,gt=0"`
	Features     map[string]bool `json:"features"`
	IsActive     *bool           `json:"is_active"`
}

// SubscribeRequest starts a subscription to a plan. AutoRenew defaults to
// true when absent.
type SubscribeRequest struct {
	PlanID    int64 `json:"plan_id" validate:"required,gt=0"`
	AutoRenew *bool `json:"auto_renew"`
}

// CancelRequest cancels the caller's own active subscription.
type CancelRequest struct {
	SubscriptionID int64 `json:"subscription_id" validate:"required,gt=0"`
}

// UpgradeRequest retires one subscription and opens a new one on another plan.
type UpgradeRequest struct {
	SubscriptionID int64 `json:"subscription_id" validate:"required,gt=0"`
	NewPlanID      int64 `json:"new_plan_id" validate:"required,gt=0"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
