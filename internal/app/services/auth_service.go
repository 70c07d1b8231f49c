package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/auth"
	"github.com/yigit/schoolroll/internal/pkg/logger"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// TokenType is the scheme clients send the access token with.
const TokenType = "Bearer"

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(user *models.User) (string, int, error)
}

// AuthService handles authentication operations
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	logger zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.WithFields(map[string]interface{}{"service": "auth"}),
	}
}

// Login exchanges an email and password for an access token. An unknown email
// and a wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Debug().Str("email", req.Email).Msg("Login attempt for unknown email")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug().Int64("user_id", user.ID).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresIn:   expiresIn,
		User:        dto.NewUserResponse(*user),
	}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(*user)
	return &resp, nil
}
