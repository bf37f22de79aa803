package model

import "time"

// ChallengeSubmission is the challenge_user association: one row per (challenge, user),
// overwritten by later submissions.
type ChallengeSubmission struct {
	ChallengeID   string    `json:"challenge_id" db:"challenge_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Submission    string    `json:"submission,omitempty" db:"submission"`
	Score         int       `json:"score" db:"score"`
	Completed     bool      `json:"completed" db:"completed"`
	SubmittedAt   time.Time `json:"submitted_at" db:"submitted_at"`
	AwardedPoints int       `json:"-" db:"awarded_points"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SubmissionWithUser joins an association row with its user, for leaderboards and
// challenge detail pages.
type SubmissionWithUser struct {
	ChallengeSubmission
	Name           string  `json:"name" db:"name"`
	GithubUsername *string `json:"github_username" db:"github_username"`
	Avatar         *string `json:"avatar" db:"avatar"`
}

type SubmissionResult struct {
	Score         int  `json:"score"`
	Completed     bool `json:"completed"`
	PointsAwarded int  `json:"points_awarded"`
}
