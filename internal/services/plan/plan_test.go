package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) ListPlans(ctx context.Context, typeFilter string) ([]*models.Plan, error) {
	args := m.Called(ctx, typeFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *RepoMock) UpdatePlan(ctx context.Context, id int64, upd models.UpdatePlanRequest) (*models.Plan, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) DeletePlan(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func float64Ptr(f float64) *float64 { return &f }
func strPtr(s string) *string       { return &s }

func TestPlanService_List(t *testing.T) {
	plans := []*models.Plan{
		{ID: 1, Name: "Basic Monthly", Type: models.PlanTypeBasic},
		{ID: 2, Name: "Pro Monthly", Type: models.PlanTypePro},
	}

	tests := []struct {
		name       string
		typeFilter string
		setupMocks func(r *RepoMock)
		want       []*models.Plan
		wantErr    bool
		wantKind   apperr.Kind
	}{
		{
			name:       "all active plans",
			typeFilter: "",
			setupMocks: func(r *RepoMock) {
				r.On("ListPlans", mock.Anything, "").Return(plans, nil).Once()
			},
			want: plans,
		},
		{
			name:       "filtered by type",
			typeFilter: "pro",
			setupMocks: func(r *RepoMock) {
				r.On("ListPlans", mock.Anything, "pro").Return(plans[1:], nil).Once()
			},
			want: plans[1:],
		},
		{
			name:       "unknown type filter",
			typeFilter: "enterprise",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    true,
			wantKind:   apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := NewPlanService(repo, new(CacheMock), newNoopLogger())

			tt.setupMocks(repo)

			got, err := svc.List(context.Background(), tt.typeFilter)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestPlanService_Get(t *testing.T) {
	plan := &models.Plan{ID: 3, Name: "Pro Monthly", Type: models.PlanTypePro, Price: 19.99}

	t.Run("cache hit skips repo", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		cache.On("Get", "plan:3", mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(**models.Plan)
			*ptr = plan
		}).Once()

		got, err := svc.Get(context.Background(), 3)
		assert.NoError(t, err)
		assert.Equal(t, plan, got)

		cache.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("cache miss falls back to repo and fills cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		cache.On("Get", "plan:3", mock.Anything).Return(false, nil).Once()
		repo.On("GetPlan", mock.Anything, int64(3)).Return(plan, nil).Once()
		cache.On("Set", "plan:3", plan, time.Hour).Return(nil).Once()

		got, err := svc.Get(context.Background(), 3)
		assert.NoError(t, err)
		assert.Equal(t, plan, got)

		cache.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("cache error is non-fatal", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		cache.On("Get", "plan:3", mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetPlan", mock.Anything, int64(3)).Return(plan, nil).Once()
		cache.On("Set", "plan:3", plan, time.Hour).Return(nil).Once()

		got, err := svc.Get(context.Background(), 3)
		assert.NoError(t, err)
		assert.Equal(t, plan, got)
	})

	t.Run("plan not found", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		cache.On("Get", "plan:99", mock.Anything).Return(false, nil).Once()
		repo.On("GetPlan", mock.Anything, int64(99)).Return(nil, apperr.NotFound("subscription plan not found")).Once()

		_, err := svc.Get(context.Background(), 99)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestPlanService_Create(t *testing.T) {
	req := models.CreatePlanRequest{
		Name:         "Pro Monthly",
		Type:         models.PlanTypePro,
		Price:        float64Ptr(19.99),
		DurationDays: 30,
	}

	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc := NewPlanService(new(RepoMock), new(CacheMock), newNoopLogger())

		_, err := svc.Create(context.Background(), false, req)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("invalid plan type", func(t *testing.T) {
		svc := NewPlanService(new(RepoMock), new(CacheMock), newNoopLogger())

		bad := req
		bad.Type = "enterprise"
		_, err := svc.Create(context.Background(), true, bad)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("success with defaults", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewPlanService(repo, new(CacheMock), newNoopLogger())

		repo.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
			return p.Name == "Pro Monthly" && p.IsActive && p.Features != nil && len(p.Features) == 0
		})).Return(&models.Plan{ID: 5, Name: "Pro Monthly", Type: models.PlanTypePro}, nil).Once()

		got, err := svc.Create(context.Background(), true, req)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), got.ID)

		repo.AssertExpectations(t)
	})
}

func TestPlanService_Update(t *testing.T) {
	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc := NewPlanService(new(RepoMock), new(CacheMock), newNoopLogger())

		_, err := svc.Update(context.Background(), false, 3, models.UpdatePlanRequest{})
		assert.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("invalid type in patch", func(t *testing.T) {
		svc := NewPlanService(new(RepoMock), new(CacheMock), newNoopLogger())

		_, err := svc.Update(context.Background(), true, 3, models.UpdatePlanRequest{Type: strPtr("enterprise")})
		assert.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("success invalidates cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		req := models.UpdatePlanRequest{Price: float64Ptr(29.99)}
		repo.On("UpdatePlan", mock.Anything, int64(3), req).
			Return(&models.Plan{ID: 3, Price: 29.99}, nil).Once()
		cache.On("Invalidate", "plan:3").Return(nil).Once()

		got, err := svc.Update(context.Background(), true, 3, req)
		assert.NoError(t, err)
		assert.Equal(t, 29.99, got.Price)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}

func TestPlanService_Delete(t *testing.T) {
	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc := NewPlanService(new(RepoMock), new(CacheMock), newNoopLogger())

		err := svc.Delete(context.Background(), false, 3)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("plan with active subscriptions is a conflict", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewPlanService(repo, new(CacheMock), newNoopLogger())

		repo.On("DeletePlan", mock.Anything, int64(3)).
			Return(apperr.Conflict("plan has active subscriptions")).Once()

		err := svc.Delete(context.Background(), true, 3)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

		repo.AssertExpectations(t)
	})

	t.Run("success invalidates cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		repo.On("DeletePlan", mock.Anything, int64(3)).Return(nil).Once()
		cache.On("Invalidate", "plan:3").Return(nil).Once()

		err := svc.Delete(context.Background(), true, 3)
		assert.NoError(t, err)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}
