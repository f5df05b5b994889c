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

const matchKeyPrefix = "match"

// MatchStateRepository keeps live matches in Redis. Every read slides the
// expiry forward, so an abandoned match disappears after one TTL of silence.
type MatchStateRepository struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewMatchStateRepository(rdb *redis.Client, cfg *config.Config, logger zerolog.Logger) *MatchStateRepository {
	return &MatchStateRepository{
		rdb:    rdb,
		ttl:    cfg.HotStoreTTL,
		logger: logger,
	}
}

func matchKey(id uuid.UUID) string {
	return matchKeyPrefix + ":" + id.String()
}

func (r *MatchStateRepository) Save(ctx context.Context, m *domain.Match) error {
	raw, err := json.Marshal(toSnapshot(m))
	if err != nil {
		return fmt.Errorf("failed to encode match snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, matchKey(m.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save match state: %w", err)
	}
	r.logger.Debug().Str("match_id", m.ID.String()).Int("bytes", len(raw)).Msg("match state saved")
	return nil
}

// Get returns nil without an error when the match is absent, expired or
// stored in a shape that no longer decodes.
func (r *MatchStateRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	raw, err := r.rdb.GetEx(ctx, matchKey(id), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match state: %w", err)
	}

	var snap matchSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		r.logger.Warn().Err(err).Str("match_id", id.String()).Msg("corrupt match snapshot, treating as miss")
		return nil, nil
	}
	m, err := snap.toMatch()
	if err != nil {
		r.logger.Warn().Err(err).Str("match_id", id.String()).Msg("inconsistent match snapshot, treating as miss")
		return nil, nil
	}
	return m, nil
}

func (r *MatchStateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.rdb.Del(ctx, matchKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete match state: %w", err)
	}
	return nil
}

func (r *MatchStateRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.rdb.Exists(ctx, matchKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check match state: %w", err)
	}
	return n > 0, nil
}
