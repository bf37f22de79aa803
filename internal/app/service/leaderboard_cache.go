package service

import (
	"codecollab/internal/domain/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache memoizes ranked leaderboards per challenge. Entries are stored under the
// challenge's generation; Invalidate advances it, so a Set for an older generation is never read.
type LeaderboardCache interface {
	Generation(ctx context.Context, challengeID string) (int64, error)
	Get(ctx context.Context, challengeID string, generation int64) ([]model.LeaderboardEntry, bool, error)
	Set(ctx context.Context, challengeID string, generation int64, entries []model.LeaderboardEntry) error
	Invalidate(ctx context.Context, challengeID string) error
}

type redisLeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLeaderboardCache(rdb *redis.Client, ttl time.Duration) LeaderboardCache {
	return &redisLeaderboardCache{rdb: rdb, ttl: ttl}
}

func leaderboardKey(challengeID string, generation int64) string {
	return fmt.Sprintf("leaderboard:%s:%d", challengeID, generation)
}

func generationKey(challengeID string) string {
	return "leaderboard:" + challengeID + ":generation"
}

func (c *redisLeaderboardCache) Generation(ctx context.Context, challengeID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(challengeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read leaderboard generation: %w", err)
	}
	return gen, nil
}

func (c *redisLeaderboardCache) Get(ctx context.Context, challengeID string, generation int64) ([]model.LeaderboardEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, leaderboardKey(challengeID, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached leaderboard: %w", err)
	}
	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return entries, true, nil
}

func (c *redisLeaderboardCache) Set(ctx context.Context, challengeID string, generation int64, entries []model.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	if err := c.rdb.Set(ctx, leaderboardKey(challengeID, generation), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache leaderboard: %w", err)
	}
	return nil
}

// Invalidate bumps the generation. The superseded entry expires with its TTL.
func (c *redisLeaderboardCache) Invalidate(ctx context.Context, challengeID string) error {
	if err := c.rdb.Incr(ctx, generationKey(challengeID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard: %w", err)
	}
	return nil
}
