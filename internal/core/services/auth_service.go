package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

type AuthService struct {
	repo            domain.UserRepository
	tokens          TokenIssuer
	defaultTimezone string
}

func NewAuthService(repo domain.UserRepository, tokens TokenIssuer, defaultTimezone string) *AuthService {
	if defaultTimezone == "" {
		defaultTimezone = domain.DefaultTimezone
	}
	return &AuthService{
		repo:            repo,
		tokens:          tokens,
		defaultTimezone: defaultTimezone,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Timezone string
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	id := uuid.NewString()
	user, err := domain.NewUser(id, input.Email)
	if err != nil {
		return nil, err
	}

	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	tz := input.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}
	if err := user.UpdateSettings(domain.UserSettings{Timezone: tz}); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth service: failed to create user: %w", err)
	}

	return user, nil
}

// Login returns a signed token. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, *domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("auth service: lookup failed: %w", err)
	}

	if err := user.CheckPassword(input.Password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
