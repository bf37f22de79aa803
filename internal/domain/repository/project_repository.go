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

type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	// ListVisible returns projects owned by userID or public, newest first.
	ListVisible(ctx context.Context, userID string) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
}

type pgProjectRepository struct {
	db *sqlx.DB
}

func NewPgProjectRepository(db *sqlx.DB) ProjectRepository {
	return &pgProjectRepository{db: db}
}

const projectColumns = `id, user_id, name, slug, description, github_repo, is_public, created_at, updated_at`

func (r *pgProjectRepository) Create(ctx context.Context, p *model.Project) error {
	query := `INSERT INTO projects (id, user_id, name, slug, description, github_repo, is_public)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query, p.ID, p.UserID, p.Name, p.Slug, p.Description, p.GithubRepo, p.IsPublic).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := r.db.GetContext(ctx, p, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProjectRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgProjectRepository) ListVisible(ctx context.Context, userID string) ([]model.Project, error) {
	projects := []model.Project{}
	query := `SELECT ` + projectColumns + ` FROM projects
	          WHERE user_id = $1 OR is_public = TRUE
	          ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &projects, query, userID); err != nil {
		return nil, fmt.Errorf("pgProjectRepository.ListVisible: %w", err)
	}
	return projects, nil
}

func (r *pgProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `UPDATE projects SET name = $1, slug = $2, description = $3, github_repo = $4, is_public = $5,
	          updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6
	          RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query, p.Name, p.Slug, p.Description, p.GithubRepo, p.IsPublic, p.ID).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgProjectRepository.Update: %w", err)
	}
	return nil
}

// Delete removes the project; its coding sessions go with it (ON DELETE CASCADE).
func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Delete: %w", err)
	}
	return affectedOrNotFound(res, common.ErrNotFound)
}
