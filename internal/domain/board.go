package domain

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/google/uuid"
)

type cellKey uint8

func keyOf(x, y int) cellKey { return cellKey(y*BoardSize + x) }

// Board is one player's grid together with the ships on it and the shots it
// has received. It is the only writer of both the grid and its ships, so the
// grid always reflects ship positions.
type Board struct {
	cells    [BoardSize][BoardSize]CellState // [x][y]
	ships    []*Ship
	shots    []Shot
	occupied *swiss.Map[cellKey, int] // cell -> index into ships
}

func NewBoard() *Board {
	return &Board{occupied: swiss.NewMap[cellKey, int](BoardSize * BoardSize)}
}

// BoardState is the storage-neutral form of a board used by persistence
// adapters. Marks holds every targeted cell; ship cells are derived from Ships.
type BoardState struct {
	Ships []Ship
	Marks []Shot
	Shots []Shot
}

// Cell returns the state of (x, y). Cells outside the grid read as water.
func (b *Board) Cell(x, y int) CellState {
	if !InBounds(x, y) {
		return CellWater
	}
	return b.cells[x][y]
}

// Ships returns copies of the ships on the board in placement order.
func (b *Board) Ships() []Ship {
	out := make([]Ship, len(b.ships))
	for i, s := range b.ships {
		out[i] = s.clone()
	}
	return out
}

func (b *Board) Shots() []Shot {
	return append([]Shot(nil), b.shots...)
}

// ShipAt returns a copy of the ship covering (x, y), if any.
func (b *Board) ShipAt(x, y int) (Ship, bool) {
	if !InBounds(x, y) {
		return Ship{}, false
	}
	idx, ok := b.occupied.Get(keyOf(x, y))
	if !ok {
		return Ship{}, false
	}
	return b.ships[idx].clone(), true
}

// SunkAt reports whether (x, y) belongs to a sunk ship.
func (b *Board) SunkAt(x, y int) bool {
	if !InBounds(x, y) {
		return false
	}
	idx, ok := b.occupied.Get(keyOf(x, y))
	return ok && b.ships[idx].IsSunk()
}

// Struck reports whether any ship on the board has been hit.
func (b *Board) Struck() bool {
	for _, s := range b.ships {
		if s.IsDamaged() {
			return true
		}
	}
	return false
}

func (b *Board) findShip(id uuid.UUID) (int, *Ship) {
	for i, s := range b.ships {
		if s.ID == id {
			return i, s
		}
	}
	return -1, nil
}

// checkFootprint validates coords against the current board, ignoring the
// ship identified by ignore.
func (b *Board) checkFootprint(coords []Coordinate, ignore uuid.UUID) error {
	seen := make(map[cellKey]struct{}, len(coords))
	for _, c := range coords {
		if !InBounds(c.X, c.Y) {
			return &PlacementError{Reason: ReasonOutOfBounds, X: c.X, Y: c.Y}
		}
		if b.cells[c.X][c.Y].Targeted() {
			return &PlacementError{Reason: ReasonFiredUpon, X: c.X, Y: c.Y}
		}
		k := keyOf(c.X, c.Y)
		if _, dup := seen[k]; dup {
			return &PlacementError{Reason: ReasonCollision, X: c.X, Y: c.Y}
		}
		seen[k] = struct{}{}
		if idx, ok := b.occupied.Get(k); ok && b.ships[idx].ID != ignore {
			return &PlacementError{Reason: ReasonCollision, X: c.X, Y: c.Y}
		}
	}
	return nil
}

// Place adds a ship to the board. On error the board is unchanged.
func (b *Board) Place(ship *Ship) error {
	if ship == nil {
		return fmt.Errorf("nil ship: %w", ErrInvalidShip)
	}
	if len(ship.Coordinates) != ship.Size {
		return &PlacementError{Reason: ReasonSizeMismatch}
	}
	if _, existing := b.findShip(ship.ID); existing != nil {
		return fmt.Errorf("ship %s already placed: %w", ship.ID, ErrInvalidShip)
	}
	if err := b.checkFootprint(ship.Coordinates, ship.ID); err != nil {
		return err
	}

	owned := ship.clone()
	b.ships = append(b.ships, &owned)
	idx := len(b.ships) - 1
	for _, c := range owned.Coordinates {
		b.cells[c.X][c.Y] = CellShip
		b.occupied.Put(keyOf(c.X, c.Y), idx)
	}
	return nil
}

// PredictMove computes where a ship would go without touching the board.
func (b *Board) PredictMove(shipID uuid.UUID, dir Direction) ([]Coordinate, error) {
	_, ship := b.findShip(shipID)
	if ship == nil {
		return nil, ErrShipNotFound
	}
	return ship.PredictMove(dir)
}

// ConfirmMove relocates a ship to coords after re-validating them against the
// current board. On error the board is unchanged.
func (b *Board) ConfirmMove(shipID uuid.UUID, coords []Coordinate) error {
	idx, ship := b.findShip(shipID)
	if ship == nil {
		return ErrShipNotFound
	}
	if ship.IsDamaged() {
		return ErrDamagedShip
	}
	if len(coords) != ship.Size {
		return &PlacementError{Reason: ReasonSizeMismatch}
	}
	if err := b.checkFootprint(coords, shipID); err != nil {
		return err
	}

	for _, c := range ship.Coordinates {
		if b.cells[c.X][c.Y] == CellShip {
			b.cells[c.X][c.Y] = CellWater
		}
		b.occupied.Delete(keyOf(c.X, c.Y))
	}
	next := make([]Coordinate, len(coords))
	for i, c := range coords {
		next[i] = Coordinate{X: c.X, Y: c.Y}
		b.cells[c.X][c.Y] = CellShip
		b.occupied.Put(keyOf(c.X, c.Y), idx)
	}
	ship.Coordinates = next
	return nil
}

// MoveShip is PredictMove followed by ConfirmMove.
func (b *Board) MoveShip(shipID uuid.UUID, dir Direction) ([]Coordinate, error) {
	coords, err := b.PredictMove(shipID, dir)
	if err != nil {
		return nil, err
	}
	if err := b.ConfirmMove(shipID, coords); err != nil {
		return nil, err
	}
	return coords, nil
}

// ReceiveShot fires at (x, y) and reports whether a ship was struck.
func (b *Board) ReceiveShot(x, y int) (bool, error) {
	if !InBounds(x, y) {
		return false, fmt.Errorf("shot at (%d, %d) is off the board: %w", x, y, ErrValidation)
	}
	if b.cells[x][y].Targeted() {
		return false, ErrAlreadyTargeted
	}

	hit := false
	if idx, ok := b.occupied.Get(keyOf(x, y)); ok {
		ship := b.ships[idx]
		if seg := ship.segmentAt(x, y); seg >= 0 {
			ship.Coordinates[seg].Hit = true
			hit = true
		}
	}
	if hit {
		b.cells[x][y] = CellHit
	} else {
		b.cells[x][y] = CellMissed
	}
	b.shots = append(b.shots, Shot{X: x, Y: y, Hit: hit})
	return hit, nil
}

// AllSunk is true when the board has ships and every one of them is sunk.
func (b *Board) AllSunk() bool {
	if len(b.ships) == 0 {
		return false
	}
	for _, s := range b.ships {
		if !s.IsSunk() {
			return false
		}
	}
	return true
}

func (b *Board) reset() {
	*b = *NewBoard()
}

// State exports the board for persistence.
func (b *Board) State() BoardState {
	var marks []Shot
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if c := b.cells[x][y]; c.Targeted() {
				marks = append(marks, Shot{X: x, Y: y, Hit: c == CellHit})
			}
		}
	}
	return BoardState{Ships: b.Ships(), Marks: marks, Shots: b.Shots()}
}

// RestoreBoard rebuilds a board from persisted state, rejecting states that
// break the grid/ship invariants.
func RestoreBoard(state BoardState) (*Board, error) {
	b := NewBoard()
	for i := range state.Ships {
		s := state.Ships[i]
		if len(s.Coordinates) != s.Size {
			return nil, fmt.Errorf("ship %s has %d segments, size %d: %w", s.ID, len(s.Coordinates), s.Size, ErrInvalidShip)
		}
		for _, c := range s.Coordinates {
			if !InBounds(c.X, c.Y) {
				return nil, &PlacementError{Reason: ReasonOutOfBounds, X: c.X, Y: c.Y}
			}
			if _, taken := b.occupied.Get(keyOf(c.X, c.Y)); taken {
				return nil, &PlacementError{Reason: ReasonCollision, X: c.X, Y: c.Y}
			}
		}
		owned := s.clone()
		b.ships = append(b.ships, &owned)
		idx := len(b.ships) - 1
		for _, c := range owned.Coordinates {
			b.occupied.Put(keyOf(c.X, c.Y), idx)
			if c.Hit {
				b.cells[c.X][c.Y] = CellHit
			} else {
				b.cells[c.X][c.Y] = CellShip
			}
		}
	}

	for _, m := range state.Marks {
		if !InBounds(m.X, m.Y) {
			return nil, fmt.Errorf("mark at (%d, %d) is off the board: %w", m.X, m.Y, ErrValidation)
		}
		cur := b.cells[m.X][m.Y]
		switch {
		case m.Hit && cur != CellHit:
			return nil, fmt.Errorf("hit mark at (%d, %d) has no struck segment: %w", m.X, m.Y, ErrValidation)
		case !m.Hit && cur != CellWater:
			return nil, fmt.Errorf("miss mark at (%d, %d) covers a ship: %w", m.X, m.Y, ErrValidation)
		}
		if !m.Hit {
			b.cells[m.X][m.Y] = CellMissed
		}
	}

	b.shots = append([]Shot(nil), state.Shots...)
	return b, nil
}
