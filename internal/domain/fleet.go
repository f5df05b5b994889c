package domain

// ShipSpec is one entry of a fleet composition.
type ShipSpec struct {
	Name string
	Size int
}

// StandardFleet is the fleet every player places: two carriers, two
// battleships, one cruiser and one submarine.
var StandardFleet = []ShipSpec{
	{Name: "Aircraft Carrier", Size: 6},
	{Name: "Aircraft Carrier", Size: 6},
	{Name: "Battleship", Size: 4},
	{Name: "Battleship", Size: 4},
	{Name: "Cruiser", Size: 3},
	{Name: "Submarine", Size: 1},
}

// FleetCells is the total number of ship cells in the standard fleet.
func FleetCells() int {
	n := 0
	for _, s := range StandardFleet {
		n += s.Size
	}
	return n
}

// ShipPlacement is a requested ship position: a start cell that grows along
// x for horizontal ships and along y for vertical ones.
type ShipPlacement struct {
	Name        string      `json:"name"`
	Size        int         `json:"size"`
	StartX      int         `json:"startX"`
	StartY      int         `json:"startY"`
	Orientation Orientation `json:"orientation"`
}

func (p ShipPlacement) Coordinates() []Coordinate {
	return LayShip(p.StartX, p.StartY, p.Size, p.Orientation)
}
