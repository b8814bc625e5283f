package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
)

// LoginInput is the login form. Login accepts a username or an email.
type LoginInput struct {
	Login    string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
	Remember bool   `form:"remember" json:"remember"`
}

// AuthService checks credentials and remember-me tokens.
type AuthService struct {
	users  *repositories.UserRepository
	tokens *auth.Tokens
}

func NewAuthService(db *gorm.DB, tokens *auth.Tokens) *AuthService {
	return &AuthService{users: repositories.NewUserRepository(db), tokens: tokens}
}

// Attempt returns the user whose username or email is login and whose
// password matches, or ErrInvalidCredentials.
func (s *AuthService) Attempt(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		metrics.Logins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.FindByLogin(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.Logins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		metrics.Logins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	return &u, nil
}

// User loads user id, or ErrNotFound.
func (s *AuthService) User(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RememberToken issues a remember-me token for u.
func (s *AuthService) RememberToken(u *models.User) (string, error) {
	return s.tokens.Issue(u.ID, u.PasswordHash)
}

// FromRememberToken returns the user a valid token was issued to. Tokens
// issued before the last password change are rejected.
func (s *AuthService) FromRememberToken(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	u, err := s.User(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !claims.Matches(u.PasswordHash) {
		return nil, auth.ErrInvalidToken
	}
	return u, nil
}

// TokenTTL is the remember-me lifetime.
func (s *AuthService) TokenTTL() int { return int(s.tokens.TTL().Seconds()) }
