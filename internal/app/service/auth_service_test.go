package service

import (
	"codecollab/internal/common"
	"codecollab/internal/common/security"
	"codecollab/internal/domain/model"
	"codecollab/internal/platform/config"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()
	os.Exit(m.Run())
}

func TestAuthRegisterAndLogin(t *testing.T) {
	users := newMemUserRepo()
	svc := NewAuthService(users, &memBadgeRepo{}, &memRevoker{}, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "  Ada@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEqual(t, "correct horse", resp.User.HashedPassword)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ada 2", Email: "ada@example.com", Password: "another one"})
	assert.ErrorIs(t, err, common.ErrConflict)

	login, err := svc.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthRegisterValidation(t *testing.T) {
	svc := NewAuthService(newMemUserRepo(), &memBadgeRepo{}, &memRevoker{}, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "", Email: "not-an-email", Password: "short"})
	var vErr *common.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 3)
}

func TestAuthLogoutRevokesForRemainingLifetime(t *testing.T) {
	revoker := &memRevoker{}
	svc := NewAuthService(newMemUserRepo(), &memBadgeRepo{}, revoker, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, "jti-1", now.Add(30*time.Minute)))
	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 30*time.Minute, revoker.revoked["jti-1"])

	require.NoError(t, svc.Logout(ctx, "jti-expired", now.Add(-time.Minute)))
	revoked, _ = revoker.IsRevoked(ctx, "jti-expired")
	assert.False(t, revoked)
}

func TestAuthProfileGithubAndBadges(t *testing.T) {
	users := newMemUserRepo(model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	badges := &memBadgeRepo{}
	require.NoError(t, badges.Create(context.Background(), &model.UserBadge{ID: "b1", UserID: "u1", BadgeName: "First Blood"}))
	svc := NewAuthService(users, badges, &memRevoker{}, nil)
	ctx := context.Background()

	user, err := svc.UpdateGithubToken(ctx, "u1", GithubTokenRequest{GithubUsername: "ada-l", GithubToken: "ghp_x"})
	require.NoError(t, err)
	require.NotNil(t, user.GithubUsername)
	assert.Equal(t, "ada-l", *user.GithubUsername)

	list, err := svc.Badges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "First Blood", list[0].BadgeName)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
