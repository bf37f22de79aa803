package service

import (
	"codecollab/internal/app/grader"
	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"codecollab/internal/domain/scoring"
	"codecollab/internal/platform/database"
	"codecollab/internal/platform/metrics"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// LeaderboardInvalidator drops any memoized leaderboard for a challenge.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, challengeID string) error
}

type SubmissionService struct {
	txr           database.Transactor
	challengeRepo repository.ChallengeRepository
	userRepo      repository.UserRepository
	grader        grader.Grader
	policy        scoring.AwardPolicy
	leaderboard   LeaderboardInvalidator
	now           func() time.Time
}

func NewSubmissionService(
	txr database.Transactor,
	challengeRepo repository.ChallengeRepository,
	userRepo repository.UserRepository,
	g grader.Grader,
	policy scoring.AwardPolicy,
	leaderboard LeaderboardInvalidator,
) *SubmissionService {
	if policy == nil {
		policy = scoring.Cumulative{}
	}
	return &SubmissionService{
		txr:           txr,
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		grader:        g,
		policy:        policy,
		leaderboard:   leaderboard,
		now:           time.Now,
	}
}

type SubmitRequest struct {
	Submission string `json:"submission" validate:"required"`
}

// Submit grades a solution and records it as the user's current attempt. The association
// upsert and the point award commit together or not at all.
func (s *SubmissionService) Submit(ctx context.Context, userID, challengeID string, req SubmitRequest) (*model.SubmissionResult, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, err)
	}

	now := s.now()
	if state := challenge.WindowState(now); state != model.WindowOpen {
		return nil, fmt.Errorf("this %s: %w", state.Message(), common.ErrInvalidState)
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	raw, err := s.grader.Grade(ctx, challenge, req.Submission)
	if err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}
	score := scoring.ClampScore(raw, challenge.Points)
	completed := score > 0

	var awarded int
	err = s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.challengeRepo.LockSubmission(ctx, tx, challenge.ID, userID); err != nil {
			return err
		}
		previouslyAwarded := 0
		existing, err := s.challengeRepo.FindSubmission(ctx, tx, challenge.ID, userID, true)
		switch {
		case err == nil:
			previouslyAwarded = existing.AwardedPoints
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		awarded = s.policy.Award(score, completed, previouslyAwarded)
		association := &model.ChallengeSubmission{
			ChallengeID:   challenge.ID,
			UserID:        userID,
			Submission:    req.Submission,
			Score:         score,
			Completed:     completed,
			SubmittedAt:   now,
			AwardedPoints: awarded,
		}
		if err := s.challengeRepo.UpsertSubmission(ctx, tx, association); err != nil {
			return err
		}
		return s.userRepo.AddPoints(ctx, tx, userID, awarded)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.Invalidate(context.WithoutCancel(ctx), challenge.ID); err != nil {
			log.Printf("WARN: Failed to invalidate leaderboard for challenge %s: %v", challenge.ID, err)
		}
	}
	metrics.RecordSubmission(completed, awarded)

	return &model.SubmissionResult{
		Score:         score,
		Completed:     completed,
		PointsAwarded: awarded,
	}, nil
}
