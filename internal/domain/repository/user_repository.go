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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateGithub(ctx context.Context, id, username, token string) error
	// AddPoints credits delta points to the user. Only the submission flow calls it.
	AddPoints(ctx context.Context, tx *sqlx.Tx, id string, delta int) error
}

type pgUserRepository struct {
	db *sqlx.DB
}

func NewPgUserRepository(db *sqlx.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, name, email, hashed_password, github_username, github_token, points, bio, avatar, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, email, hashed_password)
	          VALUES ($1, $2, $3, $4)
	          RETURNING points, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query, user.ID, user.Name, user.Email, user.HashedPassword).
		Scan(&user.Points, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdateGithub(ctx context.Context, id, username, token string) error {
	query := `UPDATE users SET github_username = $1, github_token = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, username, token, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateGithub: %w", err)
	}
	return affectedOrNotFound(res, common.ErrNotFound)
}

func (r *pgUserRepository) AddPoints(ctx context.Context, tx *sqlx.Tx, id string, delta int) error {
	if delta == 0 {
		return nil
	}
	query := `UPDATE users SET points = points + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := pick(r.db, tx).ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.AddPoints: %w", err)
	}
	return affectedOrNotFound(res, common.ErrNotFound)
}
