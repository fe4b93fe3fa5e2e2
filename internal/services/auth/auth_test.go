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
	"golang.org/x/crypto/bcrypt"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/lib/jwt"
	"subscription-manager/internal/models"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UsersMock) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UsersMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *UsersMock) PromoteAdmin(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newMaker() *jwt.MakerImpl {
	return jwt.NewJWTMaker("test-secret-key", time.Hour)
}

func hashOf(t *testing.T, raw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	assert.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("CreateUser", mock.Anything, "user@example.com", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")) == nil
		})).Return(int64(42), nil).Once()

		id, err := svc.Register(context.Background(), "user@example.com", "secret123")
		assert.NoError(t, err)
		assert.Equal(t, int64(42), id)

		users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("CreateUser", mock.Anything, "user@example.com", mock.Anything).
			Return(int64(0), apperr.Conflict("email already registered")).Once()

		_, err := svc.Register(context.Background(), "user@example.com", "secret123")
		assert.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	user := &models.User{
		ID:           42,
		Email:        "user@example.com",
		PasswordHash: hashOf(t, "secret123"),
		IsActive:     true,
	}

	t.Run("success issues parseable token", func(t *testing.T) {
		users := new(UsersMock)
		maker := newMaker()
		svc := NewAuthService(users, maker, newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()

		token, got, err := svc.Login(context.Background(), "user@example.com", "secret123")
		assert.NoError(t, err)
		assert.Equal(t, user, got)

		claims, err := maker.ParseToken(token)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, models.RoleUser, claims.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, apperr.NotFound("user not found")).Once()

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
		assert.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()

		_, _, err := svc.Login(context.Background(), "user@example.com", "wrong-password")
		assert.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("storage error passes through", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(nil, errors.New("db down")).Once()

		_, _, err := svc.Login(context.Background(), "user@example.com", "secret123")
		assert.Error(t, err)
		assert.NotEqual(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	maker := newMaker()
	svc := NewAuthService(new(UsersMock), maker, newNoopLogger())

	t.Run("valid token", func(t *testing.T) {
		token, err := maker.GenerateToken(42, "user@example.com", models.RoleAdmin)
		assert.NoError(t, err)

		claims, err := svc.ValidateToken(context.Background(), token)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken(context.Background(), "not-a-token")
		assert.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwt.NewJWTMaker("another-secret", time.Hour)
		token, err := other.GenerateToken(42, "user@example.com", models.RoleUser)
		assert.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), token)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})
}

func TestAuthService_ListUsers(t *testing.T) {
	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc := NewAuthService(new(UsersMock), newMaker(), newNoopLogger())

		_, err := svc.ListUsers(context.Background(), false)
		assert.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("admin gets all users", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		all := []*models.User{{ID: 1}, {ID: 2}}
		users.On("ListUsers", mock.Anything).Return(all, nil).Once()

		got, err := svc.ListUsers(context.Background(), true)
		assert.NoError(t, err)
		assert.Equal(t, all, got)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Run("empty credentials is a no-op", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		assert.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))
		users.AssertNotCalled(t, "GetUserByEmail")
	})

	t.Run("existing admin untouched", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").
			Return(&models.User{ID: 1, IsAdmin: true}, nil).Once()

		assert.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "secret123"))
		users.AssertNotCalled(t, "PromoteAdmin")
	})

	t.Run("existing user gets promoted", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").
			Return(&models.User{ID: 7, IsAdmin: false}, nil).Once()
		users.On("PromoteAdmin", mock.Anything, int64(7)).Return(nil).Once()

		assert.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "secret123"))
		users.AssertExpectations(t)
	})

	t.Run("missing user gets created and promoted", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").
			Return(nil, apperr.NotFound("user not found")).Once()
		users.On("CreateUser", mock.Anything, "admin@example.com", mock.Anything).
			Return(int64(9), nil).Once()
		users.On("PromoteAdmin", mock.Anything, int64(9)).Return(nil).Once()

		assert.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "secret123"))
		users.AssertExpectations(t)
	})

	t.Run("lookup failure surfaces", func(t *testing.T) {
		users := new(UsersMock)
		svc := NewAuthService(users, newMaker(), newNoopLogger())

		users.On("GetUserByEmail", mock.Anything, "admin@example.com").
			Return(nil, errors.New("db down")).Once()

		assert.Error(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "secret123"))
	})
}
