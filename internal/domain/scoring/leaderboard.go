package scoring

import (
	"codecollab/internal/domain/model"
	"sort"
)

// RankLeaderboard keeps completed rows and orders them by score, highest first.
// rows must arrive in insertion order; equal scores keep that order.
func RankLeaderboard(rows []model.SubmissionWithUser) []model.LeaderboardEntry {
	completed := make([]model.SubmissionWithUser, 0, len(rows))
	for _, r := range rows {
		if r.Completed {
			completed = append(completed, r)
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].Score > completed[j].Score
	})

	entries := make([]model.LeaderboardEntry, len(completed))
	for i, r := range completed {
		entries[i] = model.LeaderboardEntry{
			Rank:           i + 1,
			UserID:         r.UserID,
			Name:           r.Name,
			GithubUsername: r.GithubUsername,
			Score:          r.Score,
			SubmittedAt:    r.SubmittedAt,
		}
	}
	return entries
}
