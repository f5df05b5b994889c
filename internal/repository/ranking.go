package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"naval-combat/internal/config"
	"naval-combat/internal/domain"
)

const rankingKey = "global_ranking"

type rankingEntry struct {
	UserID        uuid.UUID `json:"userId"`
	RankPoints    int       `json:"rankPoints"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	CurrentStreak int       `json:"currentStreak"`
	MaxStreak     int       `json:"maxStreak"`
	Medals        []string  `json:"medals,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RankingCache stores the computed leaderboard under a single key.
type RankingCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRankingCache(rdb *redis.Client, cfg *config.Config, logger zerolog.Logger) *RankingCache {
	return &RankingCache{rdb: rdb, ttl: cfg.RankingCacheTTL, logger: logger}
}

// Get reports false on a miss. A list cached for a smaller limit only serves a
// larger one when it already holds every profile.
func (c *RankingCache) Get(ctx context.Context, limit int) ([]domain.PlayerProfile, bool, error) {
	raw, err := c.rdb.Get(ctx, rankingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ranking cache: %w", err)
	}

	var cached struct {
		Limit   int            `json:"limit"`
		Entries []rankingEntry `json:"entries"`
	}
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn().Err(err).Msg("corrupt ranking cache, ignoring")
		return nil, false, nil
	}
	if cached.Limit < limit && len(cached.Entries) == cached.Limit {
		return nil, false, nil
	}

	out := make([]domain.PlayerProfile, 0, min(limit, len(cached.Entries)))
	for _, e := range cached.Entries {
		if len(out) == limit {
			break
		}
		out = append(out, domain.PlayerProfile{
			UserID:           e.UserID,
			RankPoints:       e.RankPoints,
			Wins:             e.Wins,
			Losses:           e.Losses,
			CurrentStreak:    e.CurrentStreak,
			MaxStreak:        e.MaxStreak,
			EarnedMedalCodes: e.Medals,
			UpdatedAt:        e.UpdatedAt,
		})
	}
	return out, true, nil
}

func (c *RankingCache) Set(ctx context.Context, limit int, profiles []domain.PlayerProfile) error {
	entries := make([]rankingEntry, len(profiles))
	for i, p := range profiles {
		entries[i] = rankingEntry{
			UserID:        p.UserID,
			RankPoints:    p.RankPoints,
			Wins:          p.Wins,
			Losses:        p.Losses,
			CurrentStreak: p.CurrentStreak,
			MaxStreak:     p.MaxStreak,
			Medals:        p.EarnedMedalCodes,
			UpdatedAt:     p.UpdatedAt,
		}
	}
	raw, err := json.Marshal(struct {
		Limit   int            `json:"limit"`
		Entries []rankingEntry `json:"entries"`
	}{limit, entries})
	if err != nil {
		return fmt.Errorf("failed to encode ranking: %w", err)
	}
	if err := c.rdb.Set(ctx, rankingKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write ranking cache: %w", err)
	}
	return nil
}

func (c *RankingCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, rankingKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate ranking cache: %w", err)
	}
	return nil
}
