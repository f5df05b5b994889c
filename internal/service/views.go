package service

import (
	"time"

	"github.com/google/uuid"

	"naval-combat/internal/domain"
)

type StartMatchInput struct {
	Mode         domain.GameMode
	AIDifficulty domain.Difficulty
	OpponentID   uuid.NullUUID
}

// TurnResult is what a shot or move request reports back, including the
// shots the AI fired before control returned to the human.
type TurnResult struct {
	Shot                *domain.ShotResult
	Moved               []domain.Coordinate
	AIShots             []domain.ShotResult
	GameOver            bool
	WinnerID            uuid.NullUUID
	Terminated          bool
	CurrentTurnPlayerID uuid.UUID
	TurnNumber          int
}

type ShipView struct {
	ID          uuid.UUID
	Name        string
	Size        int
	Orientation domain.Orientation
	Sunk        bool
	Coordinates []domain.Coordinate
}

// BoardView is a board as one player may see it. Grid is indexed [y][x].
type BoardView struct {
	Grid  [domain.BoardSize][domain.BoardSize]domain.CellState
	Ships []ShipView
}

type StatsView struct {
	MyHits         int
	MyMisses       int
	MyStreak       int
	MyTimeouts     int
	OpponentHits   int
	OpponentMisses int
	OpponentStreak int
}

type MatchView struct {
	MatchID             uuid.UUID
	Mode                domain.GameMode
	AIDifficulty        domain.Difficulty
	Status              domain.MatchStatus
	OpponentID          uuid.UUID
	CurrentTurnPlayerID uuid.UUID
	IsMyTurn            bool
	HasMovedThisTurn    bool
	TurnNumber          int
	TurnDeadline        time.Time
	WinnerID            uuid.NullUUID
	MyBoard             BoardView
	OpponentBoard       BoardView
	Stats               StatsView
}

func ownBoardView(b *domain.Board) BoardView {
	var v BoardView
	for x := 0; x < domain.BoardSize; x++ {
		for y := 0; y < domain.BoardSize; y++ {
			v.Grid[y][x] = b.Cell(x, y)
		}
	}
	for _, s := range b.Ships() {
		v.Ships = append(v.Ships, shipView(s))
	}
	return v
}

// opponentBoardView hides ships that are still afloat. Struck cells stay
// visible and sunk ships are revealed in full.
func opponentBoardView(b *domain.Board) BoardView {
	var v BoardView
	for x := 0; x < domain.BoardSize; x++ {
		for y := 0; y < domain.BoardSize; y++ {
			c := b.Cell(x, y)
			if c == domain.CellShip {
				c = domain.CellWater
			}
			v.Grid[y][x] = c
		}
	}
	for _, s := range b.Ships() {
		if s.IsSunk() {
			v.Ships = append(v.Ships, shipView(s))
		}
	}
	return v
}

func shipView(s domain.Ship) ShipView {
	return ShipView{
		ID:          s.ID,
		Name:        s.Name,
		Size:        s.Size,
		Orientation: s.Orientation,
		Sunk:        s.IsSunk(),
		Coordinates: s.Coordinates,
	}
}

func matchView(m *domain.Match, playerID uuid.UUID) *MatchView {
	opponent := m.Opponent(playerID)
	mine, theirs := m.StatsOf(playerID), m.StatsOf(opponent)
	v := &MatchView{
		MatchID:             m.ID,
		Mode:                m.Mode,
		AIDifficulty:        m.AIDifficulty,
		Status:              m.Status,
		OpponentID:          opponent,
		CurrentTurnPlayerID: m.CurrentTurnPlayerID,
		IsMyTurn:            m.Status == domain.StatusInProgress && m.CurrentTurnPlayerID == playerID,
		HasMovedThisTurn:    m.HasMovedThisTurn,
		TurnNumber:          m.TurnNumber,
		WinnerID:            m.WinnerID,
		MyBoard:             ownBoardView(m.BoardOf(playerID)),
		OpponentBoard:       opponentBoardView(m.BoardOf(opponent)),
		Stats: StatsView{
			MyHits:         mine.Hits,
			MyMisses:       mine.Misses,
			MyStreak:       mine.Streak,
			MyTimeouts:     mine.ConsecutiveTimeouts,
			OpponentHits:   theirs.Hits,
			OpponentMisses: theirs.Misses,
			OpponentStreak: theirs.Streak,
		},
	}
	if m.Status == domain.StatusInProgress {
		v.TurnDeadline = m.LastMoveAt.Add(domain.TurnTimeLimit)
	}
	return v
}
