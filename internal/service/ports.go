package service

import (
	"context"

	"github.com/google/uuid"

	"naval-combat/internal/domain"
)

// MatchStore is the durable store: the source of truth for setup and history.
type MatchStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	Save(ctx context.Context, m *domain.Match) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetActiveMatchID(ctx context.Context, playerID uuid.UUID) (uuid.UUID, bool, error)
	ListActiveAIMatchIDs(ctx context.Context) ([]uuid.UUID, error)
	ListUnsettledMatchIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StateStore is the hot store for live matches. Get returns nil on a miss.
type StateStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	Save(ctx context.Context, m *domain.Match) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.PlayerProfile, error)
	Upsert(ctx context.Context, p *domain.PlayerProfile) error
	ListTop(ctx context.Context, limit int) ([]domain.PlayerProfile, error)
}

type RankingCache interface {
	Get(ctx context.Context, limit int) ([]domain.PlayerProfile, bool, error)
	Set(ctx context.Context, limit int, profiles []domain.PlayerProfile) error
	Invalidate(ctx context.Context) error
}
