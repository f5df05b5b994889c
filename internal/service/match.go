package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/ai"
	"naval-combat/internal/constants"
	"naval-combat/internal/domain"
	"naval-combat/internal/validator"
)

// MatchService sequences the match use cases across the hot and durable
// stores and drives the AI opponent.
type MatchService struct {
	matches  MatchStore
	states   StateStore
	profiles ProfileStore
	ranking  RankingCache
	logger   zerolog.Logger

	locks       *matchLocks
	now         func() time.Time // millisecond precision, like the hot store
	newStrategy func(domain.Difficulty, *rand.Rand) (ai.Strategy, error)

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewMatchService(matches MatchStore, states StateStore, profiles ProfileStore, ranking RankingCache, logger zerolog.Logger) *MatchService {
	return &MatchService{
		matches:     matches,
		states:      states,
		profiles:    profiles,
		ranking:     ranking,
		logger:      logger,
		locks:       newMatchLocks(),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newStrategy: ai.New,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// newRand derives a private source for one request from the shared one.
func (s *MatchService) newRand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

func (s *MatchService) StartMatch(ctx context.Context, playerID uuid.UUID, in StartMatchInput) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if playerID == domain.AIPlayerID {
		return uuid.Nil, fmt.Errorf("player id is required: %w", domain.ErrValidation)
	}
	if !in.Mode.Valid() {
		return uuid.Nil, fmt.Errorf("game mode %q: %w", in.Mode, domain.ErrValidation)
	}
	if in.AIDifficulty != "" && !in.AIDifficulty.Valid() {
		return uuid.Nil, fmt.Errorf("difficulty %q: %w", in.AIDifficulty, domain.ErrValidation)
	}
	if in.OpponentID.Valid {
		if in.AIDifficulty != "" {
			return uuid.Nil, fmt.Errorf("cannot set both an opponent and an AI difficulty: %w", domain.ErrValidation)
		}
		if in.OpponentID.UUID == playerID {
			return uuid.Nil, fmt.Errorf("a player cannot play against themselves: %w", domain.ErrValidation)
		}
		if in.OpponentID.UUID == domain.AIPlayerID {
			return uuid.Nil, fmt.Errorf("opponent id is invalid: %w", domain.ErrValidation)
		}
	}

	opponent := domain.AIPlayerID
	players := []uuid.UUID{playerID}
	if in.OpponentID.Valid {
		opponent = in.OpponentID.UUID
		players = append(players, opponent)
	}

	// Held until the match row exists, so concurrent starts see each other.
	unlock := s.locks.lockAll(players...)
	defer unlock()

	for _, id := range players {
		if err := s.ensureIdle(ctx, id); err != nil {
			return uuid.Nil, err
		}
	}

	m := domain.NewMatch(uuid.New(), playerID, opponent, in.Mode, in.AIDifficulty, s.now())
	if err := s.matches.Save(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("player_id", playerID.String()).Msg("failed to create match")
		return uuid.Nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("player_id", playerID.String()).
		Bool("vs_ai", m.IsAIMatch()).
		Str("mode", string(m.Mode)).
		Str("difficulty", string(m.AIDifficulty)).
		Msg("match created")
	return m.ID, nil
}

func (s *MatchService) ensureIdle(ctx context.Context, playerID uuid.UUID) error {
	active, ok, err := s.matches.GetActiveMatchID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to check active matches: %w", err)
	}
	if ok {
		return &domain.ActiveMatchError{PlayerID: playerID, MatchID: active}
	}
	return nil
}

// SetupFleet places a player's fleet and marks them ready. Against the AI the
// computer's fleet is placed at the same time, so the match starts at once.
func (s *MatchService) SetupFleet(ctx context.Context, playerID, matchID uuid.UUID, fleet []domain.ShipPlacement) (domain.MatchStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := validator.ValidateFleet(fleet); err != nil {
		return "", err
	}

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return "", fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return "", domain.ErrMatchNotFound
	}
	switch m.Status {
	case domain.StatusFinished:
		return "", domain.ErrMatchFinished
	case domain.StatusInProgress:
		return "", domain.ErrNotInSetup
	}
	if playerID == domain.AIPlayerID || !m.IsParticipant(playerID) {
		return "", domain.ErrNotParticipant
	}

	if err := m.ResetBoard(playerID); err != nil {
		return "", err
	}
	board := m.BoardOf(playerID)
	for _, p := range fleet {
		ship, err := domain.NewShip(uuid.New(), p.Name, p.Size, p.Orientation, p.Coordinates())
		if err != nil {
			return "", err
		}
		if err := board.Place(ship); err != nil {
			return "", err
		}
	}

	rng := s.newRand()
	now := s.now()
	if err := m.SetPlayerReady(playerID, now, rng); err != nil {
		return "", err
	}
	if m.IsAIMatch() && playerID == m.Player1ID {
		if err := m.ResetBoard(domain.AIPlayerID); err != nil {
			return "", err
		}
		if err := ai.PlaceFleet(m.Player2Board, rng); err != nil {
			return "", fmt.Errorf("failed to place AI fleet: %w", err)
		}
		if err := m.SetPlayerReady(domain.AIPlayerID, now, rng); err != nil {
			return "", err
		}
	}

	if err := s.matches.Save(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to save setup")
		return "", fmt.Errorf("failed to save match: %w", err)
	}

	if m.Status == domain.StatusInProgress {
		if err := s.states.Save(ctx, m); err != nil {
			return "", fmt.Errorf("failed to publish match state: %w", err)
		}
		s.logger.Info().
			Str("match_id", matchID.String()).
			Str("first_turn", m.CurrentTurnPlayerID.String()).
			Msg("match started")

		if m.IsAITurn() {
			if _, err := s.runAITurns(ctx, m); err != nil {
				return "", err
			}
		}
	}
	return m.Status, nil
}

// Shoot fires at the opponent's board. When the turn has run out the turn is
// switched and persisted, and the request is rejected with the timeout.
func (s *MatchService) Shoot(ctx context.Context, playerID, matchID uuid.UUID, x, y int) (*TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := validator.ValidateShot(x, y); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.loadLive(ctx, matchID)
	if err != nil {
		return nil, err
	}

	shot, err := m.Shoot(playerID, x, y, s.now())
	if err != nil {
		return s.rejected(ctx, m, err)
	}

	res := &TurnResult{Shot: &shot}
	if err := s.afterAction(ctx, m, res); err != nil {
		return nil, err
	}
	return res, nil
}

// MoveShip relocates one of the player's ships in dynamic mode and ends the
// turn.
func (s *MatchService) MoveShip(ctx context.Context, playerID, matchID, shipID uuid.UUID, dir domain.Direction) (*TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := validator.ValidateDirection(dir); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.loadLive(ctx, matchID)
	if err != nil {
		return nil, err
	}

	coords, err := m.Move(playerID, shipID, dir, s.now())
	if err != nil {
		return s.rejected(ctx, m, err)
	}

	res := &TurnResult{Moved: coords}
	if err := s.afterAction(ctx, m, res); err != nil {
		return nil, err
	}
	return res, nil
}

// rejected handles a failed action. Only a timeout has changed the match; it
// is saved, and a match that ended through inactivity is reported as a
// finished result rather than an error.
func (s *MatchService) rejected(ctx context.Context, m *domain.Match, err error) (*TurnResult, error) {
	var timeout *domain.TurnTimeoutError
	if !errors.As(err, &timeout) {
		return nil, err
	}

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("player_id", timeout.PlayerID.String()).
		Int("consecutive", timeout.Consecutive).
		Bool("terminated", timeout.Terminated).
		Msg("turn timed out")

	if err := s.states.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save match state: %w", err)
	}
	if timeout.Terminated {
		if err := s.finalize(ctx, m); err != nil {
			return nil, err
		}
		return &TurnResult{
			GameOver:            true,
			Terminated:          true,
			WinnerID:            m.WinnerID,
			CurrentTurnPlayerID: m.CurrentTurnPlayerID,
			TurnNumber:          m.TurnNumber,
		}, nil
	}
	if m.IsAITurn() {
		if _, err := s.runAITurns(ctx, m); err != nil {
			return nil, err
		}
	}
	return nil, err
}

// afterAction persists a successful action and hands the turn to the AI when
// it is due.
func (s *MatchService) afterAction(ctx context.Context, m *domain.Match, res *TurnResult) error {
	if err := s.states.Save(ctx, m); err != nil {
		return fmt.Errorf("failed to save match state: %w", err)
	}

	if m.IsFinished() {
		if err := s.finalize(ctx, m); err != nil {
			return err
		}
	} else if m.IsAITurn() {
		shots, err := s.runAITurns(ctx, m)
		if err != nil {
			return err
		}
		res.AIShots = shots
	}

	res.GameOver = m.IsFinished()
	res.WinnerID = m.WinnerID
	res.CurrentTurnPlayerID = m.CurrentTurnPlayerID
	res.TurnNumber = m.TurnNumber
	return nil
}

// runAITurns lets the AI fire until it misses or wins. Shots go through the
// same Match.Shoot as human shots. The hot store is written once at the end.
func (s *MatchService) runAITurns(ctx context.Context, m *domain.Match) ([]domain.ShotResult, error) {
	strategy, err := s.newStrategy(m.AIDifficulty, s.newRand())
	if err != nil {
		return nil, err
	}

	var shots []domain.ShotResult
	for m.IsAITurn() && !m.IsFinished() {
		target, err := strategy.ChooseTarget(m.Player1Board)
		if err != nil {
			return nil, fmt.Errorf("ai failed to choose a target: %w", err)
		}
		shot, err := m.Shoot(domain.AIPlayerID, target.X, target.Y, s.now())
		if errors.Is(err, domain.ErrTurnTimeout) {
			// A resumed AI turn whose budget already ran out is charged like any other.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ai shot rejected: %w", err)
		}
		shots = append(shots, shot)
	}

	s.logger.Debug().
		Str("match_id", m.ID.String()).
		Str("difficulty", string(m.AIDifficulty)).
		Int("shots", len(shots)).
		Msg("ai turn played")

	if err := s.states.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save match state: %w", err)
	}
	if m.IsFinished() {
		if err := s.finalize(ctx, m); err != nil {
			return nil, err
		}
	}
	return shots, nil
}

// CheckTurnTimeout applies an expired turn to the match. It is what the
// sweeper runs for every live AI match.
func (s *MatchService) CheckTurnTimeout(ctx context.Context, matchID uuid.UUID) (domain.TimeoutOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.loadLive(ctx, matchID)
	if err != nil {
		return domain.TimeoutOutcome{}, err
	}
	if m.Status != domain.StatusInProgress {
		return domain.TimeoutOutcome{}, nil
	}

	// An AI turn left unplayed by an interrupted request is resumed, not charged.
	if m.IsAITurn() {
		_, err := s.runAITurns(ctx, m)
		return domain.TimeoutOutcome{}, err
	}

	out := m.ApplyTimeoutIfExpired(s.now())
	if !out.Charged {
		return out, nil
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("player_id", out.PlayerID.String()).
		Int("consecutive", out.Consecutive).
		Bool("terminated", out.Terminated).
		Msg("turn timed out")

	if err := s.states.Save(ctx, m); err != nil {
		return out, fmt.Errorf("failed to save match state: %w", err)
	}
	if out.Terminated {
		return out, s.finalize(ctx, m)
	}
	if m.IsAITurn() {
		if _, err := s.runAITurns(ctx, m); err != nil {
			return out, err
		}
	}
	return out, nil
}

// CancelMatch abandons a match. A match still in setup is deleted; a running
// one is finished with the canceling player as loser.
func (s *MatchService) CancelMatch(ctx context.Context, playerID, matchID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return domain.ErrMatchNotFound
	}
	if playerID == domain.AIPlayerID || !m.IsParticipant(playerID) {
		return domain.ErrNotParticipant
	}

	switch m.Status {
	case domain.StatusFinished:
		return domain.ErrMatchFinished
	case domain.StatusSetup:
		if err := s.matches.Delete(ctx, matchID); err != nil {
			return fmt.Errorf("failed to delete match: %w", err)
		}
		s.dropLive(ctx, matchID)
		s.logger.Info().Str("match_id", matchID.String()).Msg("match canceled during setup")
		return nil
	}

	// The durable row only holds the state at start; the hot copy has the
	// moves since then.
	if live, err := s.states.Get(ctx, matchID); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to read live state for cancel")
	} else if live != nil && live.Status == domain.StatusInProgress {
		m = live
	}

	if err := m.Forfeit(playerID, s.now()); err != nil {
		return err
	}
	// A canceled match does not change the profiles.
	m.Settled = true
	if err := s.matches.Save(ctx, m); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	s.dropLive(ctx, matchID)

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("player_id", playerID.String()).
		Msg("match forfeited")
	return nil
}

func (s *MatchService) GetMatchState(ctx context.Context, playerID, matchID uuid.UUID) (*MatchView, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.locks.lock(matchID)
	defer unlock()

	m, err := s.loadLive(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if playerID == domain.AIPlayerID || !m.IsParticipant(playerID) {
		return nil, domain.ErrNotParticipant
	}
	return matchView(m, playerID), nil
}

// loadLive reads a match from the hot store and falls back to the durable
// store, re-seeding the hot store when the match is still running.
func (s *MatchService) loadLive(ctx context.Context, matchID uuid.UUID) (*domain.Match, error) {
	m, err := s.states.Get(ctx, matchID)
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("hot store read failed, using durable store")
	}
	if m != nil {
		return m, nil
	}

	m, err = s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return nil, domain.ErrMatchNotFound
	}
	if m.Status == domain.StatusInProgress {
		if err := s.states.Save(ctx, m); err != nil {
			s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to repair hot store")
		} else {
			s.logger.Info().Str("match_id", matchID.String()).Msg("hot store repaired from durable store")
		}
	}
	return m, nil
}

func (s *MatchService) dropLive(ctx context.Context, matchID uuid.UUID) {
	if err := s.states.Delete(ctx, matchID); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to delete live state")
	}
}
