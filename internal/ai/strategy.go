package ai

import (
	"errors"
	"fmt"
	"math/rand"

	"naval-combat/internal/domain"
)

// ErrNoTarget is returned when every cell of the board has been fired upon.
var ErrNoTarget = errors.New("no untargeted cell left")

// Target is the read-only view of an enemy board a strategy aims at. Ship
// cells that have not been struck must be treated like water.
type Target interface {
	Cell(x, y int) domain.CellState
	SunkAt(x, y int) bool
}

// Strategy picks the next cell to fire at. Strategies keep no memory between
// calls; everything they know is read from the board.
type Strategy interface {
	Name() domain.Difficulty
	ChooseTarget(board Target) (domain.Coordinate, error)
}

// New creates the strategy for a difficulty level. The rng is not safe for
// concurrent use, so each caller should hand over its own.
func New(level domain.Difficulty, rng *rand.Rand) (Strategy, error) {
	switch level {
	case domain.DifficultyBasic:
		return &Basic{rng: rng}, nil
	case domain.DifficultyIntermediate:
		return &Intermediate{rng: rng}, nil
	case domain.DifficultyAdvanced:
		return &Advanced{rng: rng}, nil
	default:
		return nil, fmt.Errorf("unknown difficulty %q", level)
	}
}

var steps = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func open(board Target, x, y int) bool {
	return domain.InBounds(x, y) && !board.Cell(x, y).Targeted()
}

func untargeted(board Target) []domain.Coordinate {
	var out []domain.Coordinate
	for y := 0; y < domain.BoardSize; y++ {
		for x := 0; x < domain.BoardSize; x++ {
			if open(board, x, y) {
				out = append(out, domain.Coordinate{X: x, Y: y})
			}
		}
	}
	return out
}

// liveHits returns struck cells that belong to ships still afloat.
func liveHits(board Target) []domain.Coordinate {
	var out []domain.Coordinate
	for y := 0; y < domain.BoardSize; y++ {
		for x := 0; x < domain.BoardSize; x++ {
			if board.Cell(x, y) == domain.CellHit && !board.SunkAt(x, y) {
				out = append(out, domain.Coordinate{X: x, Y: y})
			}
		}
	}
	return out
}

func pick(rng *rand.Rand, cells []domain.Coordinate) domain.Coordinate {
	return cells[rng.Intn(len(cells))]
}

// Basic fires at a uniformly random untargeted cell.
type Basic struct {
	rng *rand.Rand
}

func (b *Basic) Name() domain.Difficulty { return domain.DifficultyBasic }

func (b *Basic) ChooseTarget(board Target) (domain.Coordinate, error) {
	cells := untargeted(board)
	if len(cells) == 0 {
		return domain.Coordinate{}, ErrNoTarget
	}
	return pick(b.rng, cells), nil
}
