package ai

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"naval-combat/internal/domain"
)

func placeShip(t *testing.T, b *domain.Board, x, y, size int, o domain.Orientation) {
	t.Helper()
	s, err := domain.NewShip(uuid.New(), "test", size, o, domain.LayShip(x, y, size, o))
	if err != nil {
		t.Fatalf("NewShip() error = %v", err)
	}
	if err := b.Place(s); err != nil {
		t.Fatalf("Place() error = %v", err)
	}
}

func shoot(t *testing.T, b *domain.Board, x, y int) {
	t.Helper()
	if _, err := b.ReceiveShot(x, y); err != nil {
		t.Fatalf("ReceiveShot(%d,%d) error = %v", x, y, err)
	}
}

func TestNew(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, level := range []domain.Difficulty{domain.DifficultyBasic, domain.DifficultyIntermediate, domain.DifficultyAdvanced} {
		s, err := New(level, rng)
		if err != nil {
			t.Fatalf("New(%s) error = %v", level, err)
		}
		if s.Name() != level {
			t.Fatalf("Name() = %s, want %s", s.Name(), level)
		}
	}
	if _, err := New("impossible", rng); err == nil {
		t.Fatal("New(impossible) should fail")
	}
}

func TestBasicOnlyPicksUntargeted(t *testing.T) {
	b := domain.NewBoard()
	placeShip(t, b, 4, 4, 1, domain.Horizontal)
	for x := 0; x < domain.BoardSize; x++ {
		for y := 0; y < domain.BoardSize; y++ {
			if (x == 4 && y == 4) || (x == 9 && y == 0) {
				continue
			}
			shoot(t, b, x, y)
		}
	}

	s := &Basic{rng: rand.New(rand.NewSource(7))}
	for i := 0; i < 20; i++ {
		c, err := s.ChooseTarget(b)
		if err != nil {
			t.Fatalf("ChooseTarget() error = %v", err)
		}
		if !(c.X == 4 && c.Y == 4) && !(c.X == 9 && c.Y == 0) {
			t.Fatalf("ChooseTarget() = %v, want an untargeted cell", c)
		}
	}

	shoot(t, b, 4, 4)
	shoot(t, b, 9, 0)
	for _, level := range []domain.Difficulty{domain.DifficultyBasic, domain.DifficultyIntermediate, domain.DifficultyAdvanced} {
		s, _ := New(level, rand.New(rand.NewSource(1)))
		if _, err := s.ChooseTarget(b); !errors.Is(err, ErrNoTarget) {
			t.Fatalf("%s on full board error = %v, want ErrNoTarget", level, err)
		}
	}
}

func TestIntermediateHuntsAroundLiveHit(t *testing.T) {
	b := domain.NewBoard()
	placeShip(t, b, 5, 5, 3, domain.Vertical)
	shoot(t, b, 5, 6)
	shoot(t, b, 5, 4)

	want := map[domain.Coordinate]bool{{X: 4, Y: 6}: true, {X: 6, Y: 6}: true, {X: 5, Y: 5}: true, {X: 5, Y: 7}: true}
	s := &Intermediate{rng: rand.New(rand.NewSource(3))}
	for i := 0; i < 30; i++ {
		c, err := s.ChooseTarget(b)
		if err != nil {
			t.Fatalf("ChooseTarget() error = %v", err)
		}
		if !want[c] {
			t.Fatalf("ChooseTarget() = %v, want a neighbour of (5,6)", c)
		}
	}
}

func TestSunkHitsAreNotHunted(t *testing.T) {
	b := domain.NewBoard()
	placeShip(t, b, 2, 2, 1, domain.Horizontal)
	placeShip(t, b, 7, 7, 2, domain.Horizontal)
	shoot(t, b, 2, 2)
	shoot(t, b, 7, 7)

	hits := liveHits(b)
	if len(hits) != 1 || hits[0] != (domain.Coordinate{X: 7, Y: 7}) {
		t.Fatalf("liveHits() = %v, want only (7,7)", hits)
	}
}

func TestAdvancedExtendsLine(t *testing.T) {
	b := domain.NewBoard()
	placeShip(t, b, 2, 3, 4, domain.Horizontal)
	shoot(t, b, 3, 3)
	shoot(t, b, 4, 3)

	want := map[domain.Coordinate]bool{{X: 2, Y: 3}: true, {X: 5, Y: 3}: true}
	s := &Advanced{rng: rand.New(rand.NewSource(5))}
	for i := 0; i < 30; i++ {
		c, err := s.ChooseTarget(b)
		if err != nil {
			t.Fatalf("ChooseTarget() error = %v", err)
		}
		if !want[c] {
			t.Fatalf("ChooseTarget() = %v, want a line end", c)
		}
	}

	// With one end blocked by a miss only the other end remains.
	shoot(t, b, 1, 3)
	shoot(t, b, 2, 3)
	c, err := s.ChooseTarget(b)
	if err != nil {
		t.Fatalf("ChooseTarget() error = %v", err)
	}
	if c != (domain.Coordinate{X: 5, Y: 3}) {
		t.Fatalf("ChooseTarget() = %v, want (5,3)", c)
	}
}

func TestAdvancedHuntsOnParity(t *testing.T) {
	b := domain.NewBoard()
	s := &Advanced{rng: rand.New(rand.NewSource(11))}
	for i := 0; i < 50; i++ {
		c, err := s.ChooseTarget(b)
		if err != nil {
			t.Fatalf("ChooseTarget() error = %v", err)
		}
		if (c.X+c.Y)%2 != 0 {
			t.Fatalf("ChooseTarget() = %v, want an even-parity cell", c)
		}
		shoot(t, b, c.X, c.Y)
	}
	// All even cells are gone, so the odd ones come next.
	c, err := s.ChooseTarget(b)
	if err != nil {
		t.Fatalf("ChooseTarget() error = %v", err)
	}
	if (c.X+c.Y)%2 != 1 {
		t.Fatalf("ChooseTarget() = %v, want an odd-parity cell", c)
	}
}

func TestPlaceFleet(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		b := domain.NewBoard()
		if err := PlaceFleet(b, rand.New(rand.NewSource(seed))); err != nil {
			t.Fatalf("seed %d: PlaceFleet() error = %v", seed, err)
		}
		ships := b.Ships()
		if len(ships) != len(domain.StandardFleet) {
			t.Fatalf("seed %d: %d ships, want %d", seed, len(ships), len(domain.StandardFleet))
		}
		cells := 0
		for x := 0; x < domain.BoardSize; x++ {
			for y := 0; y < domain.BoardSize; y++ {
				if b.Cell(x, y) == domain.CellShip {
					cells++
				}
			}
		}
		if cells != domain.FleetCells() {
			t.Fatalf("seed %d: %d ship cells, want %d", seed, cells, domain.FleetCells())
		}
	}
}
