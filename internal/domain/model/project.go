package model

import "time"

type Project struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description" db:"description"`
	GithubRepo  *string   `json:"github_repo" db:"github_repo"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	CodingSessions []CodingSession `json:"coding_sessions,omitempty" db:"-"`
}

func (p *Project) OwnerID() string {
	return p.UserID
}
