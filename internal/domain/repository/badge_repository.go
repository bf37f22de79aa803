package repository

import (
	"codecollab/internal/domain/model"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type BadgeRepository interface {
	Create(ctx context.Context, badge *model.UserBadge) error
	ListByUser(ctx context.Context, userID string) ([]model.UserBadge, error)
}

type pgBadgeRepository struct {
	db *sqlx.DB
}

func NewPgBadgeRepository(db *sqlx.DB) BadgeRepository {
	return &pgBadgeRepository{db: db}
}

func (r *pgBadgeRepository) Create(ctx context.Context, b *model.UserBadge) error {
	query := `INSERT INTO user_badges (id, user_id, badge_name, badge_description, badge_icon, points, awarded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, query, b.ID, b.UserID, b.BadgeName, b.BadgeDescription, b.BadgeIcon, b.Points, b.AwardedAt).
		Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgBadgeRepository.Create: %w", err)
	}
	return nil
}

func (r *pgBadgeRepository) ListByUser(ctx context.Context, userID string) ([]model.UserBadge, error) {
	badges := []model.UserBadge{}
	query := `SELECT id, user_id, badge_name, badge_description, badge_icon, points, awarded_at, created_at
	          FROM user_badges WHERE user_id = $1 ORDER BY awarded_at DESC`
	if err := r.db.SelectContext(ctx, &badges, query, userID); err != nil {
		return nil, fmt.Errorf("pgBadgeRepository.ListByUser: %w", err)
	}
	return badges, nil
}
