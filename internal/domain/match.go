package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const (
	// TurnTimeLimit is the time budget of a single turn.
	TurnTimeLimit = 31 * time.Second
	// MaxConsecutiveTimeouts ends the match in favour of the opponent.
	MaxConsecutiveTimeouts = 4
)

// AIPlayerID is the identity of the computer opponent. It is also the value
// of CurrentTurnPlayerID while the AI holds the turn.
var AIPlayerID = uuid.Nil

// PlayerStats are the per-player counters of a match.
type PlayerStats struct {
	Hits                int
	Misses              int
	Streak              int
	ConsecutiveTimeouts int
}

// Match is the aggregate root of one game. Fields are exported for the
// persistence adapters; game state is only changed through its methods.
type Match struct {
	ID           uuid.UUID
	Player1ID    uuid.UUID
	Player2ID    uuid.UUID // AIPlayerID for matches against the computer
	Player1Board *Board
	Player2Board *Board
	Mode         GameMode
	AIDifficulty Difficulty // empty for human-vs-human

	Status              MatchStatus
	CurrentTurnPlayerID uuid.UUID
	WinnerID            uuid.NullUUID
	TurnNumber          int
	HasMovedThisTurn    bool

	Player1Ready bool
	Player2Ready bool
	Player1Stats PlayerStats
	Player2Stats PlayerStats

	CreatedAt  time.Time
	StartedAt  time.Time
	LastMoveAt time.Time
	FinishedAt time.Time

	// Settled is set once the participants' profiles reflect the result.
	Settled bool
}

// NewMatch creates a match in the setup phase with empty boards.
func NewMatch(id, player1, player2 uuid.UUID, mode GameMode, difficulty Difficulty, now time.Time) *Match {
	if player2 == AIPlayerID && difficulty == "" {
		difficulty = DifficultyBasic
	}
	if player2 != AIPlayerID {
		difficulty = ""
	}
	return &Match{
		ID:                  id,
		Player1ID:           player1,
		Player2ID:           player2,
		Player1Board:        NewBoard(),
		Player2Board:        NewBoard(),
		Mode:                mode,
		AIDifficulty:        difficulty,
		Status:              StatusSetup,
		CurrentTurnPlayerID: player1,
		CreatedAt:           now,
	}
}

// ShotResult describes the outcome of one shot.
type ShotResult struct {
	X, Y     int
	Hit      bool
	Sunk     bool
	ShipName string
	GameOver bool
	WinnerID uuid.NullUUID
}

// TimeoutOutcome describes a timeout charged by ApplyTimeoutIfExpired.
type TimeoutOutcome struct {
	Charged     bool
	PlayerID    uuid.UUID
	Consecutive int
	Terminated  bool
}

func (m *Match) IsAIMatch() bool  { return m.Player2ID == AIPlayerID }
func (m *Match) IsAITurn() bool   { return m.IsAIMatch() && m.CurrentTurnPlayerID == AIPlayerID }
func (m *Match) IsFinished() bool { return m.Status == StatusFinished }

// IsParticipant reports whether id plays in this match. The AI identity only
// participates in AI matches.
func (m *Match) IsParticipant(id uuid.UUID) bool {
	return id == m.Player1ID || id == m.Player2ID
}

// Opponent returns the other side of id.
func (m *Match) Opponent(id uuid.UUID) uuid.UUID {
	if id == m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}

// BoardOf returns the board owned by id.
func (m *Match) BoardOf(id uuid.UUID) *Board {
	if id == m.Player1ID {
		return m.Player1Board
	}
	return m.Player2Board
}

func (m *Match) StatsOf(id uuid.UUID) PlayerStats {
	return *m.statsOf(id)
}

func (m *Match) statsOf(id uuid.UUID) *PlayerStats {
	if id == m.Player1ID {
		return &m.Player1Stats
	}
	return &m.Player2Stats
}

// ResetBoard clears a player's board so the fleet can be placed again.
func (m *Match) ResetBoard(playerID uuid.UUID) error {
	if m.Status != StatusSetup {
		return ErrNotInSetup
	}
	if !m.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	m.BoardOf(playerID).reset()
	if playerID == m.Player1ID {
		m.Player1Ready = false
	} else {
		m.Player2Ready = false
	}
	return nil
}

// SetPlayerReady marks one side ready. Once both sides are ready the match
// starts: against the AI the human opens, otherwise rng picks the opener.
func (m *Match) SetPlayerReady(playerID uuid.UUID, now time.Time, rng *rand.Rand) error {
	if m.Status != StatusSetup {
		return ErrNotInSetup
	}
	if !m.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	if len(m.BoardOf(playerID).ships) == 0 {
		return fmt.Errorf("cannot be ready with an empty board: %w", ErrValidation)
	}

	if playerID == m.Player1ID {
		m.Player1Ready = true
	} else {
		m.Player2Ready = true
	}
	if !m.Player1Ready || !m.Player2Ready {
		return nil
	}

	m.Status = StatusInProgress
	m.StartedAt = now
	m.LastMoveAt = now
	m.TurnNumber = 1
	m.HasMovedThisTurn = false
	m.CurrentTurnPlayerID = m.Player1ID
	if !m.IsAIMatch() && rng != nil && rng.Intn(2) == 1 {
		m.CurrentTurnPlayerID = m.Player2ID
	}
	return nil
}

// ApplyTimeoutIfExpired charges the turn holder with a timeout when the turn
// budget is exhausted: the turn passes to the other side, and the fourth
// consecutive timeout ends the match in favour of the opponent. Both the
// request path and the background sweeper go through here.
func (m *Match) ApplyTimeoutIfExpired(now time.Time) TimeoutOutcome {
	if m.Status != StatusInProgress || now.Sub(m.LastMoveAt) <= TurnTimeLimit {
		return TimeoutOutcome{}
	}

	holder := m.CurrentTurnPlayerID
	stats := m.statsOf(holder)
	stats.ConsecutiveTimeouts++

	out := TimeoutOutcome{Charged: true, PlayerID: holder, Consecutive: stats.ConsecutiveTimeouts}
	if stats.ConsecutiveTimeouts >= MaxConsecutiveTimeouts {
		m.finish(m.Opponent(holder), now)
		out.Terminated = true
		return out
	}
	m.switchTurn(now)
	return out
}

// validateTurn runs the checks shared by every in-game action.
func (m *Match) validateTurn(playerID uuid.UUID, now time.Time) error {
	switch m.Status {
	case StatusFinished:
		return ErrMatchFinished
	case StatusSetup:
		return ErrNotInProgress
	}
	if !m.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	if out := m.ApplyTimeoutIfExpired(now); out.Charged {
		return &TurnTimeoutError{PlayerID: out.PlayerID, Consecutive: out.Consecutive, Terminated: out.Terminated}
	}
	if playerID != m.CurrentTurnPlayerID {
		return ErrNotYourTurn
	}
	return nil
}

// Shoot fires at the opponent's board. A hit keeps the turn, a miss passes it,
// and sinking the last ship finishes the match.
func (m *Match) Shoot(playerID uuid.UUID, x, y int, now time.Time) (ShotResult, error) {
	if err := m.validateTurn(playerID, now); err != nil {
		return ShotResult{}, err
	}

	target := m.BoardOf(m.Opponent(playerID))
	hit, err := target.ReceiveShot(x, y)
	if err != nil {
		return ShotResult{}, err
	}

	stats := m.statsOf(playerID)
	stats.ConsecutiveTimeouts = 0
	res := ShotResult{X: x, Y: y, Hit: hit}
	if hit {
		stats.Hits++
		stats.Streak++
		if ship, ok := target.ShipAt(x, y); ok {
			res.ShipName = ship.Name
			res.Sunk = ship.IsSunk()
		}
	} else {
		stats.Misses++
		stats.Streak = 0
	}

	switch {
	case target.AllSunk():
		m.finish(playerID, now)
	case !hit:
		m.switchTurn(now)
	default:
		m.LastMoveAt = now
	}

	res.GameOver = m.IsFinished()
	res.WinnerID = m.WinnerID
	return res, nil
}

// Move relocates one of the player's own ships by one cell. Only allowed in
// dynamic mode, at most once per turn, and always ends the turn.
func (m *Match) Move(playerID, shipID uuid.UUID, dir Direction, now time.Time) ([]Coordinate, error) {
	if m.Mode != ModeDynamic {
		return nil, ErrMoveNotAllowed
	}
	if err := m.validateTurn(playerID, now); err != nil {
		return nil, err
	}
	if m.HasMovedThisTurn {
		return nil, ErrAlreadyMoved
	}

	coords, err := m.BoardOf(playerID).MoveShip(shipID, dir)
	if err != nil {
		return nil, err
	}
	m.statsOf(playerID).ConsecutiveTimeouts = 0
	m.HasMovedThisTurn = true
	m.switchTurn(now)
	return coords, nil
}

// Forfeit ends an in-progress match with playerID as the loser.
func (m *Match) Forfeit(playerID uuid.UUID, now time.Time) error {
	if m.Status != StatusInProgress {
		return ErrNotInProgress
	}
	if !m.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	m.finish(m.Opponent(playerID), now)
	return nil
}

func (m *Match) switchTurn(now time.Time) {
	m.CurrentTurnPlayerID = m.Opponent(m.CurrentTurnPlayerID)
	m.HasMovedThisTurn = false
	m.TurnNumber++
	m.LastMoveAt = now
}

func (m *Match) finish(winner uuid.UUID, now time.Time) {
	m.Status = StatusFinished
	m.WinnerID = uuid.NullUUID{UUID: winner, Valid: true}
	m.FinishedAt = now
	m.LastMoveAt = now
}
