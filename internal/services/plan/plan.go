// Package services contains the plan catalog business logic: listing and
// reading plans is open, mutation is restricted to administrators, and
// single-plan reads go through the cache.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/lib/sl"
	"subscription-manager/internal/models"
)

// PlanRepository defines the storage methods the catalog needs.
type PlanRepository interface {
	// CreatePlan inserts a plan and returns the stored record.
	CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error)
	// GetPlan returns a plan by id.
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	// ListPlans returns active plans, optionally narrowed by type.
	ListPlans(ctx context.Context, typeFilter string) ([]*models.Plan, error)
	// UpdatePlan applies only the supplied fields and returns the result.
	UpdatePlan(ctx context.Context, id int64, upd models.UpdatePlanRequest) (*models.Plan, error)
	// DeletePlan removes a plan unless active subscriptions reference it.
	DeletePlan(ctx context.Context, id int64) error
}

// Cache describes the methods used to cache single plans.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PlanService implements the plan catalog.
type PlanService struct {
	repo  PlanRepository
	cache Cache
	log   *slog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(repo PlanRepository, cache Cache, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func planCacheKey(id int64) string {
	return fmt.Sprintf("plan:%d", id)
}

// List returns all active plans, optionally narrowed by type. An unknown
// type filter is a validation error rather than an empty list.
func (s *PlanService) List(ctx context.Context, typeFilter string) ([]*models.Plan, error) {
	if typeFilter != "" && !models.ValidPlanType(typeFilter) {
		return nil, apperr.Validation("invalid plan type")
	}
	return s.repo.ListPlans(ctx, typeFilter)
}

// Get returns a plan by id, via the cache when possible.
func (s *PlanService) Get(ctx context.Context, id int64) (*models.Plan, error) {
	var result *models.Plan
	cacheKey := planCacheKey(id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read plan from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache plan", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Create stores a new plan. Admin only: the authorization predicate is
// evaluated here, first, and returns a typed forbidden result.
func (s *PlanService) Create(ctx context.Context, isAdmin bool, req models.CreatePlanRequest) (*models.Plan, error) {
	if !isAdmin {
		return nil, apperr.Forbidden("admin access required")
	}
	if !models.ValidPlanType(req.Type) {
		return nil, apperr.Validation("invalid plan type")
	}

	plan := models.Plan{
		Name:         req.Name,
		Type:         req.Type,
		Description:  req.Description,
		Price:        *req.Price,
		DurationDays: req.DurationDays,
		Features:     req.Features,
		IsActive:     true,
	}
	if plan.Features == nil {
		plan.Features = map[string]bool{}
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new plan", slog.Int64("id", created.ID), slog.String("type", created.Type))
	return created, nil
}

// Update applies only the supplied fields to a plan. Admin only.
func (s *PlanService) Update(ctx context.Context, isAdmin bool, id int64, req models.UpdatePlanRequest) (*models.Plan, error) {
	if !isAdmin {
		return nil, apperr.Forbidden("admin access required")
	}
	if req.Type != nil && !models.ValidPlanType(*req.Type) {
		return nil, apperr.Validation("invalid plan type")
	}

	updated, err := s.repo.UpdatePlan(ctx, id, req)
	if err != nil {
		return nil, err
	}

	cacheKey := planCacheKey(id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("key", cacheKey), sl.Err(err))
	}
	s.log.Info("updated plan", slog.Int64("id", id))
	return updated, nil
}

// Delete removes a plan permanently. Admin only; blocked while active
// subscriptions reference the plan.
func (s *PlanService) Delete(ctx context.Context, isAdmin bool, id int64) error {
	if !isAdmin {
		return apperr.Forbidden("admin access required")
	}

	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}

	cacheKey := planCacheKey(id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("key", cacheKey), sl.Err(err))
	}
	s.log.Info("deleted plan", slog.Int64("id", id))
	return nil
}
