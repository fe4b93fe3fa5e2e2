// Package services contains the account and authentication business logic:
// registration, login, token validation and the startup admin bootstrap.
package services

import (
	"context"
	"log/slog"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/lib/jwt"
	"subscription-manager/internal/lib/password"
	"subscription-manager/internal/models"
)

// UserRepository defines the user storage contract.
type UserRepository interface {
	// CreateUser stores a new account and returns its id.
	CreateUser(ctx context.Context, email, passwordHash string) (int64, error)
	// GetUserByEmail returns the user with the given email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser returns the user with the given id.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// ListUsers returns every account.
	ListUsers(ctx context.Context) ([]*models.User, error)
	// PromoteAdmin sets the admin flag on an existing user.
	PromoteAdmin(ctx context.Context, id int64) error
}

// AuthService handles registration, login and JWT validation.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register creates a new account with a hashed password and returns its id.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (int64, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return 0, err
	}
	return s.users.CreateUser(ctx, email, hashed)
}

// Login checks the credentials and issues a JWT. A bad email and a bad
// password both come back as the same unauthorized result.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", nil, apperr.Unauthorized("invalid credentials")
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role())
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken checks a bearer token and returns its claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// GetUser returns the user with the given id.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUser(ctx, id)
}

// ListUsers returns every account. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, isAdmin bool) ([]*models.User, error) {
	if !isAdmin {
		return nil, apperr.Forbidden("admin access required")
	}
	return s.users.ListUsers(ctx)
}

// EnsureAdmin creates the configured administrator account or promotes an
// existing one. Empty credentials disable the bootstrap.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, rawPassword string) error {
	if email == "" || rawPassword == "" {
		return nil
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin {
			return nil
		}
		if err := s.users.PromoteAdmin(ctx, user.ID); err != nil {
			return err
		}
		s.log.Info("promoted user to admin", slog.String("email", email))
		return nil
	case apperr.KindOf(err) == apperr.KindNotFound:
		hashed, err := password.GetHash(rawPassword)
		if err != nil {
			return err
		}
		id, err := s.users.CreateUser(ctx, email, hashed)
		if err != nil {
			return err
		}
		if err := s.users.PromoteAdmin(ctx, id); err != nil {
			return err
		}
		s.log.Info("created admin user", slog.String("email", email))
		return nil
	default:
		return err
	}
}
