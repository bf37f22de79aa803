package repository

import (
	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type CodingSessionRepository interface {
	Create(ctx context.Context, s *model.CodingSession) error
	FindByID(ctx context.Context, id string) (*model.CodingSession, error)
	// FindByIDForUpdate locks the row until tx ends. tx must not be nil.
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*model.CodingSession, error)
	ListByProject(ctx context.Context, projectID string) ([]model.CodingSession, error)
	Update(ctx context.Context, tx *sqlx.Tx, s *model.CodingSession) error
	Delete(ctx context.Context, id string) error
}

type pgCodingSessionRepository struct {
	db *sqlx.DB
}

func NewPgCodingSessionRepository(db *sqlx.DB) CodingSessionRepository {
	return &pgCodingSessionRepository{db: db}
}

const sessionColumns = `id, project_id, name, content, content_version, participants, started_at, ended_at, is_active, created_at, updated_at`

func (r *pgCodingSessionRepository) Create(ctx context.Context, s *model.CodingSession) error {
	query := `INSERT INTO coding_sessions (id, project_id, name, content, content_version, participants, started_at, ended_at, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.ProjectID, s.Name, s.Content, s.ContentVersion, s.Participants, s.StartedAt, s.EndedAt, s.IsActive,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgCodingSessionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCodingSessionRepository) FindByID(ctx context.Context, id string) (*model.CodingSession, error) {
	return r.find(ctx, r.db, `SELECT `+sessionColumns+` FROM coding_sessions WHERE id = $1`, id)
}

func (r *pgCodingSessionRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*model.CodingSession, error) {
	return r.find(ctx, pick(r.db, tx), `SELECT `+sessionColumns+` FROM coding_sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgCodingSessionRepository) find(ctx context.Context, q queryer, query, id string) (*model.CodingSession, error) {
	s := &model.CodingSession{}
	if err := q.GetContext(ctx, s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCodingSessionRepository.find: %w", err)
	}
	return s, nil
}

func (r *pgCodingSessionRepository) ListByProject(ctx context.Context, projectID string) ([]model.CodingSession, error) {
	sessions := []model.CodingSession{}
	query := `SELECT ` + sessionColumns + ` FROM coding_sessions WHERE project_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &sessions, query, projectID); err != nil {
		return nil, fmt.Errorf("pgCodingSessionRepository.ListByProject: %w", err)
	}
	return sessions, nil
}

func (r *pgCodingSessionRepository) Update(ctx context.Context, tx *sqlx.Tx, s *model.CodingSession) error {
	query := `UPDATE coding_sessions SET name = $1, content = $2, content_version = $3, participants = $4,
	          ended_at = $5, is_active = $6, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $7
	          RETURNING updated_at`
	q := pick(r.db, tx)
	err := q.GetContext(ctx, &s.UpdatedAt, query,
		s.Name, s.Content, s.ContentVersion, s.Participants, s.EndedAt, s.IsActive, s.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgCodingSessionRepository.Update: %w", err)
	}
	return nil
}

func (r *pgCodingSessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coding_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCodingSessionRepository.Delete: %w", err)
	}
	return affectedOrNotFound(res, common.ErrNotFound)
}
