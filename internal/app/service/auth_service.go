package service

import (
	"codecollab/internal/common"
	"codecollab/internal/common/security"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserLeaderboardInvalidator drops the memoized leaderboards a user appears on.
type UserLeaderboardInvalidator interface {
	InvalidateForUser(ctx context.Context, userID string) error
}

type AuthService struct {
	userRepo     repository.UserRepository
	badgeRepo    repository.BadgeRepository
	revoker      security.TokenRevoker
	leaderboards UserLeaderboardInvalidator
	now          func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	badgeRepo repository.BadgeRepository,
	revoker security.TokenRevoker,
	leaderboards UserLeaderboardInvalidator,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		badgeRepo:    badgeRepo,
		revoker:      revoker,
		leaderboards: leaderboards,
		now:          time.Now,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GithubTokenRequest struct {
	GithubUsername string `json:"github_username" validate:"required,max=255"`
	GithubToken    string `json:"github_token" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict for a taken email
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.revoker.Revoke(ctx, tokenID, expiresAt.Sub(s.now()))
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	return user, nil
}

func (s *AuthService) UpdateGithubToken(ctx context.Context, userID string, req GithubTokenRequest) (*model.User, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateGithub(ctx, userID, req.GithubUsername, req.GithubToken); err != nil {
		return nil, fmt.Errorf("failed to update github credentials: %w", err)
	}
	if s.leaderboards != nil {
		if err := s.leaderboards.InvalidateForUser(context.WithoutCancel(ctx), userID); err != nil {
			log.Printf("WARN: Failed to invalidate leaderboards for user %s: %v", userID, err)
		}
	}
	return s.Profile(ctx, userID)
}

func (s *AuthService) Badges(ctx context.Context, userID string) ([]model.UserBadge, error) {
	return s.badgeRepo.ListByUser(ctx, userID)
}
