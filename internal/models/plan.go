// Package models contains the domain structures for subscription plans,
// subscriptions and users, plus the request types used to receive and
// validate JSON payloads before they are converted into domain records.
package models

import "time"

// Plan types. A plan's type is restricted to this set.
const (
	PlanTypeFree  = "free"
	PlanTypeBasic = "basic"
	PlanTypePro   = "pro"
)

// Plan is a purchasable subscription tier with a price, a duration in days
// and a set of named boolean feature flags.
type Plan struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Description  string          `json:"description"`
	Price        float64         `json:"price"`
	DurationDays int             `json:"duration_days"`
	Features     map[string]bool `json:"features"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ValidPlanType reports whether t is one of the known plan types.
func ValidPlanType(t string) bool {
	switch t {
	case PlanTypeFree, PlanTypeBasic, PlanTypePro:
		return true
	}
	return false
}
