package handler

import (
	"bytes"
	"codecollab/internal/api/middleware"
	"codecollab/internal/app/service"
	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"context"
	"net/http"
	"time"
)

// The handlers depend on these narrow views of the services so they can be driven with
// stubs in tests.

type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResponse, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	Profile(ctx context.Context, userID string) (*model.User, error)
	UpdateGithubToken(ctx context.Context, userID string, req service.GithubTokenRequest) (*model.User, error)
	Badges(ctx context.Context, userID string) ([]model.UserBadge, error)
}

type ProjectService interface {
	List(ctx context.Context, actorID string) ([]model.Project, error)
	Create(ctx context.Context, actorID string, req service.CreateProjectRequest) (*model.Project, error)
	Get(ctx context.Context, actorID, id string) (*model.Project, error)
	Update(ctx context.Context, actorID, id string, req service.UpdateProjectRequest) (*model.Project, error)
	Delete(ctx context.Context, actorID, id string) error
}

type CodingSessionService interface {
	ListForProject(ctx context.Context, actorID, projectID string) ([]model.CodingSession, error)
	Create(ctx context.Context, actorID, projectID string, req service.CreateCodingSessionRequest) (*model.CodingSession, error)
	Get(ctx context.Context, actorID, id string) (*model.CodingSession, error)
	Update(ctx context.Context, actorID, id string, req service.UpdateCodingSessionRequest) (*model.CodingSession, error)
	Delete(ctx context.Context, actorID, id string) error
	Join(ctx context.Context, actorID, id string) (*model.CodingSession, error)
	Leave(ctx context.Context, actorID, id string) error
	UpdateContent(ctx context.Context, actorID, id string, req service.UpdateContentRequest) (*model.CodingSession, error)
	AuthorizeStream(ctx context.Context, actorID, id string) error
}

type ChallengeService interface {
	ListOpen(ctx context.Context) ([]model.Challenge, error)
	Create(ctx context.Context, actorID string, req service.CreateChallengeRequest) (*model.Challenge, error)
	Get(ctx context.Context, actorID, id string) (*service.ChallengeDetail, error)
	Update(ctx context.Context, actorID, id string, req service.UpdateChallengeRequest) (*model.Challenge, error)
	Delete(ctx context.Context, actorID, id string) error
}

type SubmissionService interface {
	Submit(ctx context.Context, userID, challengeID string, req service.SubmitRequest) (*model.SubmissionResult, error)
}

type LeaderboardService interface {
	Leaderboard(ctx context.Context, challengeID string) ([]model.LeaderboardEntry, error)
	Statistics(ctx context.Context, challengeID string) (*model.ChallengeStatistics, error)
	Export(ctx context.Context, challengeID string) (*bytes.Buffer, error)
}

// SessionStream serves the live event stream of one coding session.
type SessionStream interface {
	ServeSession(w http.ResponseWriter, r *http.Request, sessionID string)
}

// actorID reads the authenticated user; the Authenticator middleware guarantees it is set.
func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}
	return userID, true
}
