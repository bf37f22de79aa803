package service

import (
	"bytes"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"codecollab/internal/domain/scoring"
	"codecollab/internal/platform/metrics"
	"context"
	"fmt"
	"log"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

type LeaderboardService struct {
	challengeRepo repository.ChallengeRepository
	cache         LeaderboardCache
	group         singleflight.Group
}

func NewLeaderboardService(challengeRepo repository.ChallengeRepository, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{challengeRepo: challengeRepo, cache: cache}
}

// Leaderboard ranks the challenge's completed submissions, highest score first.
func (s *LeaderboardService) Leaderboard(ctx context.Context, challengeID string) ([]model.LeaderboardEntry, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, err)
	}

	// The generation is read before the rows so an invalidation racing the query
	// leaves the result under a generation nobody reads again.
	var generation int64
	cached := s.cache != nil
	if cached {
		generation, err = s.cache.Generation(ctx, challenge.ID)
		if err != nil {
			log.Printf("WARN: %v", err)
			cached = false
		}
	}
	if cached {
		entries, ok, err := s.cache.Get(ctx, challenge.ID, generation)
		if err != nil {
			log.Printf("WARN: %v", err)
		} else if ok {
			metrics.CacheHits.Inc()
			return entries, nil
		}
		metrics.CacheMisses.Inc()
	}

	key := fmt.Sprintf("%s:%d", challenge.ID, generation)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		rows, err := s.challengeRepo.ListSubmissions(ctx, challenge.ID)
		if err != nil {
			return nil, err
		}
		entries := scoring.RankLeaderboard(rows)
		if cached {
			if err := s.cache.Set(ctx, challenge.ID, generation, entries); err != nil {
				log.Printf("WARN: %v", err)
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}
	return v.([]model.LeaderboardEntry), nil
}

func (s *LeaderboardService) Invalidate(ctx context.Context, challengeID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, challengeID)
}

// InvalidateForUser drops every leaderboard the user appears on.
func (s *LeaderboardService) InvalidateForUser(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	ids, err := s.challengeRepo.ListSubmittedChallengeIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list challenges for user %s: %w", userID, err)
	}
	for _, id := range ids {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Statistics summarizes every submission to the challenge, completed or not.
func (s *LeaderboardService) Statistics(ctx context.Context, challengeID string) (*model.ChallengeStatistics, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, err)
	}
	rows, err := s.challengeRepo.ListSubmissions(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	result := &model.ChallengeStatistics{ChallengeID: challenge.ID, Participants: len(rows)}
	if len(rows) == 0 {
		return result, nil
	}

	scores := make([]float64, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, float64(r.Score))
		if r.Completed {
			result.Completed++
		}
	}
	result.CompletionRate = float64(result.Completed) / float64(result.Participants)

	if result.MeanScore, err = stats.Mean(scores); err != nil {
		return nil, err
	}
	if result.MedianScore, err = stats.Median(scores); err != nil {
		return nil, err
	}
	if result.MaxScore, err = stats.Max(scores); err != nil {
		return nil, err
	}
	return result, nil
}

// Export renders the leaderboard as an .xlsx workbook.
func (s *LeaderboardService) Export(ctx context.Context, challengeID string) (*bytes.Buffer, error) {
	entries, err := s.Leaderboard(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Leaderboard"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Rank", "Name", "GitHub", "Score", "Submitted At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, e := range entries {
		github := ""
		if e.GithubUsername != nil {
			github = *e.GithubUsername
		}
		row := []interface{}{e.Rank, e.Name, github, e.Score, e.SubmittedAt.UTC().Format("2006-01-02 15:04:05")}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write leaderboard workbook: %w", err)
	}
	return buf, nil
}
