package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"naval-combat/internal/domain"
)

// matchSnapshot is the hot store representation of a match. Enum values are
// upper-case and board cells are kept sparse: only fired-upon cells appear in
// OceanGrid, ship cells are derived from Ships. Timestamps are unix
// milliseconds, so a round trip is exact only for millisecond clocks; the
// service clock is truncated to match.
type matchSnapshot struct {
	MatchID          string            `json:"MatchId"`
	GameMode         string            `json:"GameMode"`
	AiDifficulty     string            `json:"AiDifficulty,omitempty"`
	Player1ID        string            `json:"Player1Id"`
	Player2ID        string            `json:"Player2Id,omitempty"`
	Status           string            `json:"Status"`
	TurnNumber       int               `json:"TurnNumber"`
	TurnPlayerID     string            `json:"TurnPlayerId"`
	WinnerID         string            `json:"WinnerId,omitempty"`
	HasMovedThisTurn bool              `json:"HasMovedThisTurn"`
	P1Ready          bool              `json:"P1_Ready"`
	P2Ready          bool              `json:"P2_Ready"`
	P1Timeouts       int               `json:"P1_ConsecutiveTimeouts"`
	P2Timeouts       int               `json:"P2_ConsecutiveTimeouts"`
	CreatedAt        int64             `json:"CreatedAt"`
	StartedAt        int64             `json:"StartedAt,omitempty"`
	TurnStartedAt    int64             `json:"TurnStartedAt,omitempty"`
	FinishedAt       int64             `json:"FinishedAt,omitempty"`
	Settled          bool              `json:"Settled,omitempty"`
	P1Stats          statsSnapshot     `json:"P1_Stats"`
	P2Stats          statsSnapshot     `json:"P2_Stats"`
	Boards           boardPairSnapshot `json:"Boards"`
}

type statsSnapshot struct {
	Streak int `json:"Streak"`
	Hits   int `json:"Hits"`
	Misses int `json:"Misses"`
}

type boardPairSnapshot struct {
	P1 boardSnapshot `json:"P1"`
	P2 boardSnapshot `json:"P2"`
}

type boardSnapshot struct {
	AliveShips int            `json:"AliveShips"`
	OceanGrid  map[string]int `json:"OceanGrid"` // "x,y" -> 0 miss, 1 hit
	Ships      []shipSnapshot `json:"Ships"`
	Shots      []domain.Shot  `json:"Shots"`
}

type shipSnapshot struct {
	ID          string              `json:"Id"`
	Type        string              `json:"Type"`
	Size        int                 `json:"Size"`
	Orientation string              `json:"Orientation"`
	Sunk        bool                `json:"Sunk"`
	IsDamaged   bool                `json:"IsDamaged"`
	Segments    []domain.Coordinate `json:"Segments"`
}

func toSnapshot(m *domain.Match) matchSnapshot {
	s := matchSnapshot{
		MatchID:          m.ID.String(),
		GameMode:         strings.ToUpper(string(m.Mode)),
		AiDifficulty:     strings.ToUpper(string(m.AIDifficulty)),
		Player1ID:        m.Player1ID.String(),
		Status:           strings.ToUpper(string(m.Status)),
		TurnNumber:       m.TurnNumber,
		TurnPlayerID:     m.CurrentTurnPlayerID.String(),
		HasMovedThisTurn: m.HasMovedThisTurn,
		P1Ready:          m.Player1Ready,
		P2Ready:          m.Player2Ready,
		P1Timeouts:       m.Player1Stats.ConsecutiveTimeouts,
		P2Timeouts:       m.Player2Stats.ConsecutiveTimeouts,
		CreatedAt:        unixMilli(m.CreatedAt),
		StartedAt:        unixMilli(m.StartedAt),
		TurnStartedAt:    unixMilli(m.LastMoveAt),
		FinishedAt:       unixMilli(m.FinishedAt),
		Settled:          m.Settled,
		P1Stats:          statsSnapshot{Streak: m.Player1Stats.Streak, Hits: m.Player1Stats.Hits, Misses: m.Player1Stats.Misses},
		P2Stats:          statsSnapshot{Streak: m.Player2Stats.Streak, Hits: m.Player2Stats.Hits, Misses: m.Player2Stats.Misses},
		Boards: boardPairSnapshot{
			P1: toBoardSnapshot(m.Player1Board.State()),
			P2: toBoardSnapshot(m.Player2Board.State()),
		},
	}
	if !m.IsAIMatch() {
		s.Player2ID = m.Player2ID.String()
	}
	if m.WinnerID.Valid {
		s.WinnerID = m.WinnerID.UUID.String()
	}
	return s
}

func toBoardSnapshot(state domain.BoardState) boardSnapshot {
	b := boardSnapshot{
		OceanGrid: make(map[string]int, len(state.Marks)),
		Ships:     make([]shipSnapshot, 0, len(state.Ships)),
		Shots:     state.Shots,
	}
	for _, mark := range state.Marks {
		v := 0
		if mark.Hit {
			v = 1
		}
		b.OceanGrid[cellKey(mark.X, mark.Y)] = v
	}
	for i := range state.Ships {
		ship := &state.Ships[i]
		if !ship.IsSunk() {
			b.AliveShips++
		}
		b.Ships = append(b.Ships, shipSnapshot{
			ID:          ship.ID.String(),
			Type:        ship.Name,
			Size:        ship.Size,
			Orientation: strings.ToUpper(string(ship.Orientation)),
			Sunk:        ship.IsSunk(),
			IsDamaged:   ship.IsDamaged(),
			Segments:    ship.Coordinates,
		})
	}
	return b
}

func (s matchSnapshot) toMatch() (*domain.Match, error) {
	id, err := uuid.Parse(s.MatchID)
	if err != nil {
		return nil, fmt.Errorf("invalid match id: %w", err)
	}
	p1, err := uuid.Parse(s.Player1ID)
	if err != nil {
		return nil, fmt.Errorf("invalid player1 id: %w", err)
	}
	p2 := domain.AIPlayerID
	if s.Player2ID != "" {
		if p2, err = uuid.Parse(s.Player2ID); err != nil {
			return nil, fmt.Errorf("invalid player2 id: %w", err)
		}
	}
	turn, err := uuid.Parse(s.TurnPlayerID)
	if err != nil {
		return nil, fmt.Errorf("invalid turn player id: %w", err)
	}

	mode := domain.GameMode(strings.ToLower(s.GameMode))
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown game mode %q", s.GameMode)
	}
	difficulty := domain.Difficulty(strings.ToLower(s.AiDifficulty))
	if difficulty != "" && !difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", s.AiDifficulty)
	}
	status, err := parseStatus(s.Status)
	if err != nil {
		return nil, err
	}

	b1, err := s.Boards.P1.toBoard()
	if err != nil {
		return nil, fmt.Errorf("player1 board: %w", err)
	}
	b2, err := s.Boards.P2.toBoard()
	if err != nil {
		return nil, fmt.Errorf("player2 board: %w", err)
	}

	m := &domain.Match{
		ID:                  id,
		Player1ID:           p1,
		Player2ID:           p2,
		Player1Board:        b1,
		Player2Board:        b2,
		Mode:                mode,
		AIDifficulty:        difficulty,
		Status:              status,
		CurrentTurnPlayerID: turn,
		TurnNumber:          s.TurnNumber,
		HasMovedThisTurn:    s.HasMovedThisTurn,
		Player1Ready:        s.P1Ready,
		Player2Ready:        s.P2Ready,
		Player1Stats: domain.PlayerStats{
			Hits: s.P1Stats.Hits, Misses: s.P1Stats.Misses, Streak: s.P1Stats.Streak,
			ConsecutiveTimeouts: s.P1Timeouts,
		},
		Player2Stats: domain.PlayerStats{
			Hits: s.P2Stats.Hits, Misses: s.P2Stats.Misses, Streak: s.P2Stats.Streak,
			ConsecutiveTimeouts: s.P2Timeouts,
		},
		CreatedAt:  fromUnixMilli(s.CreatedAt),
		StartedAt:  fromUnixMilli(s.StartedAt),
		LastMoveAt: fromUnixMilli(s.TurnStartedAt),
		FinishedAt: fromUnixMilli(s.FinishedAt),
		Settled:    s.Settled,
	}
	if s.WinnerID != "" {
		w, err := uuid.Parse(s.WinnerID)
		if err != nil {
			return nil, fmt.Errorf("invalid winner id: %w", err)
		}
		m.WinnerID = uuid.NullUUID{UUID: w, Valid: true}
	}
	return m, nil
}

func (b boardSnapshot) toBoard() (*domain.Board, error) {
	state := domain.BoardState{Shots: b.Shots}
	for _, s := range b.Ships {
		id, err := uuid.Parse(s.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid ship id: %w", err)
		}
		state.Ships = append(state.Ships, domain.Ship{
			ID:          id,
			Name:        s.Type,
			Size:        s.Size,
			Orientation: domain.Orientation(strings.ToLower(s.Orientation)),
			Coordinates: s.Segments,
		})
	}
	for key, v := range b.OceanGrid {
		x, y, err := parseCellKey(key)
		if err != nil {
			return nil, err
		}
		state.Marks = append(state.Marks, domain.Shot{X: x, Y: y, Hit: v == 1})
	}
	return domain.RestoreBoard(state)
}

func parseStatus(s string) (domain.MatchStatus, error) {
	status := domain.MatchStatus(strings.ToLower(s))
	switch status {
	case domain.StatusSetup, domain.StatusInProgress, domain.StatusFinished:
		return status, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

func cellKey(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

func parseCellKey(key string) (int, int, error) {
	xs, ys, ok := strings.Cut(key, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid cell key %q", key)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	return x, y, nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
