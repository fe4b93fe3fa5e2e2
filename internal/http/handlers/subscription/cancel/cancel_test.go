package cancel

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"subscription-manager/internal/http/middlewarectx"
	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, userID, subscriptionID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID, subscriptionID)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		authenticated  bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:          "success",
			body:          `{"subscription_id":7}`,
			authenticated: true,
			setupMock: func(m *MockService) {
				sub := &models.Subscription{
					ID:        7,
					UserID:    42,
					PlanID:    3,
					StartDate: now.AddDate(0, 0, -5),
					EndDate:   now.AddDate(0, 0, 25),
					Status:    models.StatusCancelled,
					AutoRenew: false,
				}
				m.On("Cancel", mock.Anything, int64(42), int64(7)).Return(sub, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"cancelled"`,
		},
		{
			name:           "unauthenticated",
			body:           `{"subscription_id":7}`,
			authenticated:  false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"authentication required"}`,
		},
		{
			name:           "malformed json",
			body:           `{"subscription_id":`,
			authenticated:  true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "missing subscription id",
			body:           `{}`,
			authenticated:  true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `required field`,
		},
		{
			name:          "not found or not owned",
			body:          `{"subscription_id":99}`,
			authenticated: true,
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, int64(42), int64(99)).
					Return(nil, apperr.NotFound("no active subscription found"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `no active subscription found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/cancel", strings.NewReader(tt.body))
			if tt.authenticated {
				ctx := context.WithValue(req.Context(), middlewarectx.UserID, int64(42))
				ctx = context.WithValue(ctx, middlewarectx.Role, models.RoleUser)
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
