package validator

import (
	"errors"
	"testing"

	"naval-combat/internal/domain"
)

func validFleet() []domain.ShipPlacement {
	out := make([]domain.ShipPlacement, 0, len(domain.StandardFleet))
	for i, s := range domain.StandardFleet {
		out = append(out, domain.ShipPlacement{Name: s.Name, Size: s.Size, StartX: 0, StartY: i, Orientation: domain.Horizontal})
	}
	return out
}

func TestValidateFleet(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]domain.ShipPlacement) []domain.ShipPlacement
		wantErr bool
	}{
		{"valid", func(f []domain.ShipPlacement) []domain.ShipPlacement { return f }, false},
		{"empty", func([]domain.ShipPlacement) []domain.ShipPlacement { return nil }, true},
		{"missing ship", func(f []domain.ShipPlacement) []domain.ShipPlacement { return f[:5] }, true},
		{"wrong mix", func(f []domain.ShipPlacement) []domain.ShipPlacement { f[5].Size = 3; return f }, true},
		{"no name", func(f []domain.ShipPlacement) []domain.ShipPlacement { f[0].Name = " "; return f }, true},
		{"oversized", func(f []domain.ShipPlacement) []domain.ShipPlacement { f[0].Size = 7; return f }, true},
		{"start off board", func(f []domain.ShipPlacement) []domain.ShipPlacement { f[5].StartX = 10; return f }, true},
		{"bad orientation", func(f []domain.ShipPlacement) []domain.ShipPlacement { f[2].Orientation = "diagonal"; return f }, true},
		{"overhang", func(f []domain.ShipPlacement) []domain.ShipPlacement { f[0].StartX = 5; return f }, true},
		{"vertical fits", func(f []domain.ShipPlacement) []domain.ShipPlacement {
			f[0] = domain.ShipPlacement{Name: "Aircraft Carrier", Size: 6, StartX: 9, StartY: 4, Orientation: domain.Vertical}
			return f
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFleet(tt.mutate(validFleet()))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("ValidateFleet() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateFleet() error = %v", err)
			}
		})
	}
}

func TestValidateShot(t *testing.T) {
	if err := ValidateShot(0, 9); err != nil {
		t.Fatalf("ValidateShot(0, 9) error = %v", err)
	}
	for _, c := range [][2]int{{-1, 0}, {0, 10}, {10, 10}} {
		if err := ValidateShot(c[0], c[1]); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("ValidateShot(%d, %d) error = %v, want ErrValidation", c[0], c[1], err)
		}
	}
}

func TestValidateDirection(t *testing.T) {
	if err := ValidateDirection(domain.West); err != nil {
		t.Fatalf("ValidateDirection(west) error = %v", err)
	}
	if err := ValidateDirection("up"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ValidateDirection(up) error = %v, want ErrValidation", err)
	}
}
