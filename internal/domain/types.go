package domain

import "fmt"

// BoardSize is the width and height of every board.
const BoardSize = 10

type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModeDynamic GameMode = "dynamic"
)

func (m GameMode) Valid() bool {
	return m == ModeClassic || m == ModeDynamic
}

type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// MatchStatus is the lifecycle phase of a match.
type MatchStatus string

const (
	StatusSetup      MatchStatus = "setup"
	StatusInProgress MatchStatus = "in_progress"
	StatusFinished   MatchStatus = "finished"
)

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// delta returns the unit step for d. North decreases y, east increases x.
func (d Direction) delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) vertical() bool { return d == North || d == South }

type CellState int

const (
	CellWater CellState = iota
	CellShip
	CellHit
	CellMissed
)

func (c CellState) String() string {
	switch c {
	case CellWater:
		return "water"
	case CellShip:
		return "ship"
	case CellHit:
		return "hit"
	case CellMissed:
		return "missed"
	default:
		return "unknown"
	}
}

// Targeted reports whether the cell has been fired upon. Targeted cells are terminal.
func (c CellState) Targeted() bool { return c == CellHit || c == CellMissed }

// Coordinate is one board cell. Hit is only meaningful for ship segments.
type Coordinate struct {
	X   int  `json:"x"`
	Y   int  `json:"y"`
	Hit bool `json:"hit"`
}

func (c Coordinate) String() string { return fmt.Sprintf("(%d, %d)", c.X, c.Y) }

func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Shot is one entry of a board's chronological shot history.
type Shot struct {
	X   int  `json:"x"`
	Y   int  `json:"y"`
	Hit bool `json:"hit"`
}
