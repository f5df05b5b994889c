package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"naval-combat/internal/constants"
	"naval-combat/internal/domain"
)

// finalize writes a finished match to both stores and settles the profiles of
// its human participants. Once the match is stored the action stands: a
// settlement failure is logged and left for the sweeper to retry.
func (s *MatchService) finalize(ctx context.Context, m *domain.Match) error {
	if err := s.states.Save(ctx, m); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to save final live state")
	}
	if err := s.matches.Save(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to save finished match")
		return fmt.Errorf("failed to save finished match: %w", err)
	}

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("winner_id", m.WinnerID.UUID.String()).
		Int("turns", m.TurnNumber).
		Msg("match finished")

	if err := s.settleMatch(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to settle match, will retry")
	}
	return nil
}

// SettleMatch applies the result of a finished match to the profiles if that
// has not happened yet. The sweeper runs it for matches whose settlement
// failed.
func (s *MatchService) SettleMatch(ctx context.Context, matchID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return false, domain.ErrMatchNotFound
	}
	if !m.IsFinished() || m.Settled {
		return false, nil
	}
	if err := s.settleMatch(ctx, m); err != nil {
		return false, err
	}
	s.logger.Info().Str("match_id", matchID.String()).Msg("match settled on retry")
	return true, nil
}

// settleMatch credits both human participants and then records the match as
// settled in the durable store.
func (s *MatchService) settleMatch(ctx context.Context, m *domain.Match) error {
	winner := m.WinnerID.UUID
	loser := m.Opponent(winner)
	now := s.now()

	g, gCtx := errgroup.WithContext(ctx)
	if winner != domain.AIPlayerID {
		g.Go(func() error {
			flawless := !m.BoardOf(winner).Struck()
			points := constants.WinBasePoints + m.StatsOf(winner).Hits*constants.PointsPerHit
			return s.settleProfile(gCtx, winner, func(p *domain.PlayerProfile) {
				p.AddWin(points, now)
				if flawless && p.AwardMedal(domain.MedalAdmiral) {
					s.logger.Info().Str("player_id", winner.String()).Str("medal", domain.MedalAdmiral).Msg("medal awarded")
				}
			})
		})
	}
	if loser != domain.AIPlayerID {
		g.Go(func() error {
			points := m.StatsOf(loser).Hits * constants.PointsPerHit
			return s.settleProfile(gCtx, loser, func(p *domain.PlayerProfile) {
				p.AddLoss(points, now)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.ranking.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate ranking cache")
	}

	m.Settled = true
	if err := s.matches.Save(ctx, m); err != nil {
		return fmt.Errorf("failed to mark match settled: %w", err)
	}
	return nil
}

func (s *MatchService) settleProfile(ctx context.Context, playerID uuid.UUID, apply func(*domain.PlayerProfile)) error {
	p, err := s.profiles.GetOrCreate(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to load profile %s: %w", playerID, err)
	}
	apply(p)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", playerID, err)
	}
	return nil
}

// GetRanking returns the top profiles by rank points.
func (s *MatchService) GetRanking(ctx context.Context, limit int) ([]domain.PlayerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	switch {
	case limit <= 0:
		limit = constants.DefaultRankingLimit
	case limit > constants.MaxRankingLimit:
		limit = constants.MaxRankingLimit
	}

	cached, ok, err := s.ranking.Get(ctx, limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ranking cache read failed")
	}
	if ok {
		s.logger.Debug().Int("limit", limit).Msg("ranking served from cache")
		return cached, nil
	}

	profiles, err := s.profiles.ListTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranking: %w", err)
	}
	if err := s.ranking.Set(ctx, limit, profiles); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache ranking")
	}
	return profiles, nil
}

func (s *MatchService) GetProfile(ctx context.Context, playerID uuid.UUID) (*domain.PlayerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if playerID == domain.AIPlayerID {
		return nil, fmt.Errorf("player id is required: %w", domain.ErrValidation)
	}
	p, err := s.profiles.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}
