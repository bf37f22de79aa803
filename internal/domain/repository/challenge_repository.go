package repository

import (
	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type ChallengeRepository interface {
	Create(ctx context.Context, c *model.Challenge) error
	FindByID(ctx context.Context, id string) (*model.Challenge, error)
	// ListOpen returns challenges accepting submissions at now, newest first.
	ListOpen(ctx context.Context, now time.Time) ([]model.Challenge, error)
	Update(ctx context.Context, c *model.Challenge) error
	Delete(ctx context.Context, id string) error

	// LockSubmission serializes writers of the (challenge, user) pair until tx ends,
	// including before the association exists.
	LockSubmission(ctx context.Context, tx *sqlx.Tx, challengeID, userID string) error
	// FindSubmission returns the (challenge, user) association or ErrNotFound.
	// With forUpdate the row stays locked until tx ends.
	FindSubmission(ctx context.Context, tx *sqlx.Tx, challengeID, userID string, forUpdate bool) (*model.ChallengeSubmission, error)
	// UpsertSubmission replaces the pair's submission. s.AwardedPoints is added to the stored
	// total and holds the new total on return.
	UpsertSubmission(ctx context.Context, tx *sqlx.Tx, s *model.ChallengeSubmission) error
	// ListSubmissions returns every association of the challenge with its user, in insertion order.
	ListSubmissions(ctx context.Context, challengeID string) ([]model.SubmissionWithUser, error)
	ListSubmittedChallengeIDs(ctx context.Context, userID string) ([]string, error)
}

type pgChallengeRepository struct {
	db *sqlx.DB
}

func NewPgChallengeRepository(db *sqlx.DB) ChallengeRepository {
	return &pgChallengeRepository{db: db}
}

const challengeColumns = `id, user_id, title, description, instructions, starter_code, test_code, points, difficulty, starts_at, ends_at, is_active, created_at, updated_at`

func (r *pgChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	query := `INSERT INTO challenges (id, user_id, title, description, instructions, starter_code, test_code, points, difficulty, starts_at, ends_at, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.UserID, c.Title, c.Description, c.Instructions, c.StarterCode, c.TestCode,
		c.Points, c.Difficulty, c.StartsAt, c.EndsAt, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Create: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	c := &model.Challenge{}
	err := r.db.GetContext(ctx, c, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgChallengeRepository) ListOpen(ctx context.Context, now time.Time) ([]model.Challenge, error) {
	challenges := []model.Challenge{}
	query := `SELECT ` + challengeColumns + ` FROM challenges
	          WHERE is_active = TRUE AND starts_at <= $1 AND (ends_at IS NULL OR ends_at >= $1)
	          ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &challenges, query, now); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.ListOpen: %w", err)
	}
	return challenges, nil
}

func (r *pgChallengeRepository) Update(ctx context.Context, c *model.Challenge) error {
	query := `UPDATE challenges SET title = $1, description = $2, instructions = $3, starter_code = $4,
	          test_code = $5, points = $6, difficulty = $7, starts_at = $8, ends_at = $9, is_active = $10,
	          updated_at = CURRENT_TIMESTAMP
	          WHERE id = $11
	          RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		c.Title, c.Description, c.Instructions, c.StarterCode, c.TestCode, c.Points, c.Difficulty,
		c.StartsAt, c.EndsAt, c.IsActive, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgChallengeRepository.Update: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Delete: %w", err)
	}
	return affectedOrNotFound(res, common.ErrNotFound)
}

const submissionColumns = `challenge_id, user_id, submission, score, completed, submitted_at, awarded_points, created_at, updated_at`

func (r *pgChallengeRepository) LockSubmission(ctx context.Context, tx *sqlx.Tx, challengeID, userID string) error {
	if tx == nil {
		return fmt.Errorf("pgChallengeRepository.LockSubmission: requires a transaction")
	}
	query := `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`
	if _, err := tx.ExecContext(ctx, query, challengeID, userID); err != nil {
		return fmt.Errorf("pgChallengeRepository.LockSubmission: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) FindSubmission(ctx context.Context, tx *sqlx.Tx, challengeID, userID string, forUpdate bool) (*model.ChallengeSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM challenge_user WHERE challenge_id = $1 AND user_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	s := &model.ChallengeSubmission{}
	if err := pick(r.db, tx).GetContext(ctx, s, query, challengeID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.FindSubmission: %w", err)
	}
	return s, nil
}

// created_at keeps the first submission's time so leaderboard ties stay in insertion order.
func (r *pgChallengeRepository) UpsertSubmission(ctx context.Context, tx *sqlx.Tx, s *model.ChallengeSubmission) error {
	query := `INSERT INTO challenge_user (challenge_id, user_id, submission, score, completed, submitted_at, awarded_points)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (challenge_id, user_id) DO UPDATE SET
	              submission = EXCLUDED.submission,
	              score = EXCLUDED.score,
	              completed = EXCLUDED.completed,
	              submitted_at = EXCLUDED.submitted_at,
	              awarded_points = challenge_user.awarded_points + EXCLUDED.awarded_points,
	              updated_at = CURRENT_TIMESTAMP
	          RETURNING awarded_points, created_at, updated_at`
	row := struct {
		AwardedPoints int       `db:"awarded_points"`
		CreatedAt     time.Time `db:"created_at"`
		UpdatedAt     time.Time `db:"updated_at"`
	}{}
	err := pick(r.db, tx).GetContext(ctx, &row, query,
		s.ChallengeID, s.UserID, s.Submission, s.Score, s.Completed, s.SubmittedAt, s.AwardedPoints)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.UpsertSubmission: %w", err)
	}
	s.AwardedPoints, s.CreatedAt, s.UpdatedAt = row.AwardedPoints, row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *pgChallengeRepository) ListSubmissions(ctx context.Context, challengeID string) ([]model.SubmissionWithUser, error) {
	rows := []model.SubmissionWithUser{}
	query := `SELECT cu.challenge_id, cu.user_id, cu.submission, cu.score, cu.completed, cu.submitted_at,
	                 cu.awarded_points, cu.created_at, cu.updated_at,
	                 u.name, u.github_username, u.avatar
	          FROM challenge_user cu
	          JOIN users u ON u.id = cu.user_id
	          WHERE cu.challenge_id = $1
	          ORDER BY cu.created_at ASC, cu.user_id ASC`
	if err := r.db.SelectContext(ctx, &rows, query, challengeID); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.ListSubmissions: %w", err)
	}
	return rows, nil
}

func (r *pgChallengeRepository) ListSubmittedChallengeIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT challenge_id FROM challenge_user WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.ListSubmittedChallengeIDs: %w", err)
	}
	return ids, nil
}
