package ai

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"

	"naval-combat/internal/domain"
)

const (
	maxShipAttempts  = 100
	maxFleetAttempts = 50
)

var ErrPlacementExhausted = errors.New("could not place fleet")

// PlaceFleet lays the standard fleet on an empty board at random. A ship that
// cannot be placed within maxShipAttempts restarts the whole fleet.
func PlaceFleet(board *domain.Board, rng *rand.Rand) error {
	for range maxFleetAttempts {
		ships, ok := layFleet(rng)
		if !ok {
			continue
		}
		for _, s := range ships {
			if err := board.Place(s); err != nil {
				return err
			}
		}
		return nil
	}
	return ErrPlacementExhausted
}

func layFleet(rng *rand.Rand) ([]*domain.Ship, bool) {
	scratch := domain.NewBoard()
	ships := make([]*domain.Ship, 0, len(domain.StandardFleet))
	for _, spec := range domain.StandardFleet {
		placed := false
		for range maxShipAttempts {
			orientation := domain.Horizontal
			if rng.Intn(2) == 1 {
				orientation = domain.Vertical
			}
			x, y := rng.Intn(domain.BoardSize), rng.Intn(domain.BoardSize)
			ship, err := domain.NewShip(uuid.New(), spec.Name, spec.Size, orientation, domain.LayShip(x, y, spec.Size, orientation))
			if err != nil {
				return nil, false
			}
			if scratch.Place(ship) == nil {
				ships = append(ships, ship)
				placed = true
				break
			}
		}
		if !placed {
			return nil, false
		}
	}
	return ships, true
}
