package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// WindowState explains whether a challenge currently accepts submissions.
type WindowState string

const (
	WindowOpen       WindowState = "open"
	WindowInactive   WindowState = "inactive"
	WindowNotStarted WindowState = "not_started"
	WindowEnded      WindowState = "ended"
)

type Challenge struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Instructions string     `json:"instructions" db:"instructions"`
	StarterCode  string     `json:"starter_code" db:"starter_code"`
	TestCode     string     `json:"test_code" db:"test_code"`
	Points       int        `json:"points" db:"points"`
	Difficulty   Difficulty `json:"difficulty" db:"difficulty"`
	StartsAt     time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt       *time.Time `json:"ends_at" db:"ends_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

func (c *Challenge) OwnerID() string {
	return c.UserID
}

func (c *Challenge) WindowState(now time.Time) WindowState {
	switch {
	case !c.IsActive:
		return WindowInactive
	case now.Before(c.StartsAt):
		return WindowNotStarted
	case c.EndsAt != nil && now.After(*c.EndsAt):
		return WindowEnded
	}
	return WindowOpen
}

// IsOpenForSubmission reports whether the challenge is active and now lies in
// [starts_at, ends_at]. Both bounds are inclusive; a nil ends_at never closes.
func (c *Challenge) IsOpenForSubmission(now time.Time) bool {
	return c.WindowState(now) == WindowOpen
}

func (s WindowState) Message() string {
	switch s {
	case WindowInactive:
		return "challenge is not active"
	case WindowNotStarted:
		return "challenge has not started yet"
	case WindowEnded:
		return "challenge has ended"
	}
	return "challenge is open"
}
