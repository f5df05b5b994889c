package domain

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	MinShipSize = 1
	MaxShipSize = 6
)

// Ship is a single vessel. Its coordinates are only changed by the owning Board.
type Ship struct {
	ID          uuid.UUID
	Name        string
	Size        int
	Orientation Orientation
	Coordinates []Coordinate
}

// NewShip builds a ship from an explicit coordinate list.
func NewShip(id uuid.UUID, name string, size int, orientation Orientation, coords []Coordinate) (*Ship, error) {
	if size < MinShipSize || size > MaxShipSize {
		return nil, fmt.Errorf("size %d outside [%d, %d]: %w", size, MinShipSize, MaxShipSize, ErrInvalidShip)
	}
	if !orientation.Valid() {
		return nil, fmt.Errorf("orientation %q: %w", orientation, ErrInvalidShip)
	}
	if len(coords) != size {
		return nil, fmt.Errorf("ship %s needs %d coordinates, got %d: %w", name, size, len(coords), ErrInvalidShip)
	}
	return &Ship{
		ID:          id,
		Name:        name,
		Size:        size,
		Orientation: orientation,
		Coordinates: append([]Coordinate(nil), coords...),
	}, nil
}

// LayShip expands a start cell into the coordinates of a ship. Horizontal
// ships grow along x, vertical ships along y. No bounds checking is done here.
func LayShip(startX, startY, size int, orientation Orientation) []Coordinate {
	coords := make([]Coordinate, 0, size)
	for i := 0; i < size; i++ {
		x, y := startX, startY
		if orientation == Horizontal {
			x += i
		} else {
			y += i
		}
		coords = append(coords, Coordinate{X: x, Y: y})
	}
	return coords
}

func (s *Ship) IsSunk() bool {
	if len(s.Coordinates) == 0 {
		return false
	}
	for _, c := range s.Coordinates {
		if !c.Hit {
			return false
		}
	}
	return true
}

func (s *Ship) IsDamaged() bool {
	for _, c := range s.Coordinates {
		if c.Hit {
			return true
		}
	}
	return false
}

func (s *Ship) segmentAt(x, y int) int {
	for i, c := range s.Coordinates {
		if c.X == x && c.Y == y {
			return i
		}
	}
	return -1
}

// PredictMove returns the coordinates the ship would occupy after one step in
// dir. It does not look at the board.
func (s *Ship) PredictMove(dir Direction) ([]Coordinate, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("direction %q: %w", dir, ErrValidation)
	}
	if s.IsDamaged() {
		return nil, ErrDamagedShip
	}
	if s.Size > 1 {
		if s.Orientation == Vertical && !dir.vertical() {
			return nil, fmt.Errorf("vertical ship %s moved %s: %w", s.Name, dir, ErrAxisViolation)
		}
		if s.Orientation == Horizontal && dir.vertical() {
			return nil, fmt.Errorf("horizontal ship %s moved %s: %w", s.Name, dir, ErrAxisViolation)
		}
	}

	dx, dy := dir.delta()
	next := make([]Coordinate, len(s.Coordinates))
	for i, c := range s.Coordinates {
		next[i] = Coordinate{X: c.X + dx, Y: c.Y + dy}
	}
	return next, nil
}

func (s *Ship) clone() Ship {
	cp := *s
	cp.Coordinates = append([]Coordinate(nil), s.Coordinates...)
	return cp
}
