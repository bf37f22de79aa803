package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"` // Not exposed
	GithubUsername *string   `json:"github_username" db:"github_username"`
	GithubToken    *string   `json:"-" db:"github_token"` // Secret, never serialized
	Points         int       `json:"points" db:"points"`
	Bio            *string   `json:"bio" db:"bio"`
	Avatar         *string   `json:"avatar" db:"avatar"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public face of a user embedded in other resources.
type UserSummary struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	GithubUsername *string `json:"github_username" db:"github_username"`
	Avatar         *string `json:"avatar" db:"avatar"`
}

type UserBadge struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	BadgeName        string    `json:"badge_name" db:"badge_name"`
	BadgeDescription *string   `json:"badge_description" db:"badge_description"`
	BadgeIcon        *string   `json:"badge_icon" db:"badge_icon"`
	Points           int       `json:"points" db:"points"`
	AwardedAt        time.Time `json:"awarded_at" db:"awarded_at"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
