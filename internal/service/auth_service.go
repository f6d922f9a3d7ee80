package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/auth"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const bcryptCost = 10

// AuthService handles registration, login and token revocation. Register and
// Login both return the created/authenticated user together with a freshly
// issued bearer token that has already been appended to the user's token set.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, userID uuid.UUID, token string) error
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService) AuthService {
	return &authService{users: users, tokens: tokens}
}

// Register creates a user with a hashed password and logs them in. Email
// uniqueness is enforced by the store's unique index, not checked up front,
// so two concurrent registrations of the same email cannot both win.
func (s *authService) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", apperrors.ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueAndStore(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a new token. An unknown email and a
// wrong password produce the same error so accounts cannot be enumerated.
// Tokens from earlier logins stay valid; each device holds its own.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.issueAndStore(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes exactly the presented token. Other tokens of the same user
// are untouched, and revoking an already absent token is a no-op.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.users.RemoveToken(ctx, userID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (s *authService) issueAndStore(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.users.AppendToken(ctx, userID, model.TokenPurposeAuth, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}
