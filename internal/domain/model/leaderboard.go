package model

import "time"

type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	GithubUsername *string   `json:"github_username"`
	Score          int       `json:"score"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ChallengeStatistics struct {
	ChallengeID    string  `json:"challenge_id"`
	Participants   int     `json:"participants"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
	MeanScore      float64 `json:"mean_score"`
	MedianScore    float64 `json:"median_score"`
	MaxScore       float64 `json:"max_score"`
}
