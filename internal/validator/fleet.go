// Package validator checks player input before it reaches the engine. The
// engine enforces per-ship legality; fleet totals are only checked here.
package validator

import (
	"fmt"
	"strings"

	"naval-combat/internal/domain"
)

// ValidateFleet checks the placements against the standard fleet composition
// and basic per-ship ranges.
func ValidateFleet(placements []domain.ShipPlacement) error {
	if len(placements) == 0 {
		return fmt.Errorf("fleet is empty: %w", domain.ErrValidation)
	}
	if len(placements) != len(domain.StandardFleet) {
		return fmt.Errorf("fleet has %d ships, want %d: %w", len(placements), len(domain.StandardFleet), domain.ErrValidation)
	}

	want := make(map[int]int)
	for _, s := range domain.StandardFleet {
		want[s.Size]++
	}
	got := make(map[int]int)
	for i, p := range placements {
		if err := validatePlacement(p); err != nil {
			return fmt.Errorf("ship %d: %w", i, err)
		}
		got[p.Size]++
	}
	for size, n := range want {
		if got[size] != n {
			return fmt.Errorf("fleet needs %d ships of size %d, got %d: %w", n, size, got[size], domain.ErrValidation)
		}
	}
	return nil
}

func validatePlacement(p domain.ShipPlacement) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if p.Size < domain.MinShipSize || p.Size > domain.MaxShipSize {
		return fmt.Errorf("size %d outside [%d, %d]: %w", p.Size, domain.MinShipSize, domain.MaxShipSize, domain.ErrValidation)
	}
	if !domain.InBounds(p.StartX, p.StartY) {
		return fmt.Errorf("start (%d, %d) is off the board: %w", p.StartX, p.StartY, domain.ErrValidation)
	}
	if !p.Orientation.Valid() {
		return fmt.Errorf("orientation %q: %w", p.Orientation, domain.ErrValidation)
	}

	endX, endY := p.StartX, p.StartY
	if p.Orientation == domain.Horizontal {
		endX += p.Size - 1
	} else {
		endY += p.Size - 1
	}
	if !domain.InBounds(endX, endY) {
		return fmt.Errorf("%s does not fit on the board: %w", p.Name, domain.ErrValidation)
	}
	return nil
}

func ValidateShot(x, y int) error {
	if x < 0 || x >= domain.BoardSize {
		return fmt.Errorf("x must be between 0 and %d: %w", domain.BoardSize-1, domain.ErrValidation)
	}
	if y < 0 || y >= domain.BoardSize {
		return fmt.Errorf("y must be between 0 and %d: %w", domain.BoardSize-1, domain.ErrValidation)
	}
	return nil
}

func ValidateDirection(d domain.Direction) error {
	if !d.Valid() {
		return fmt.Errorf("direction %q: %w", d, domain.ErrValidation)
	}
	return nil
}
