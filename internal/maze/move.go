package maze

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotAdjacent is returned when two cells are not 4-neighbors.
var ErrNotAdjacent = errors.New("cells are not adjacent")

// TravelDirection returns the direction of the single-cell step from -> to.
func TravelDirection(from, to Coord) (Direction, error) {
	delta := Coord{X: to.X - from.X, Y: to.Y - from.Y}
	for _, d := range []Direction{North, West, South, East} {
		if d.Delta() == delta {
			return d, nil
		}
	}
	return North, fmt.Errorf("%w: %s -> %s", ErrNotAdjacent, from, to)
}

// TurnAngle is the rotation, in degrees clockwise, that brings a vehicle
// facing orientation around to travel. The result is one of -90, 0, 90, 180.
func TurnAngle(travel, orientation Direction) int {
	angle := int(orientation.Heading() - travel.Heading())
	for angle <= -180 {
		angle += 360
	}
	for angle > 180 {
		angle -= 360
	}
	return angle
}

// ApplyTurn returns the heading after turning clockwise by angle degrees.
func ApplyTurn(heading float64, angle int) float64 {
	return NormalizeHeading(heading - float64(angle))
}

// Step describes the physical motion needed to reach an adjacent cell.
type Step struct {
	From     Coord
	To       Coord
	Travel   Direction
	Turn     int
	Distance float64
}

// PlanStep translates a move from -> to for a vehicle facing orientation
// into a turn followed by a forward move of one cell.
func (g *Grid) PlanStep(from, to Coord, orientation Direction) (Step, error) {
	travel, err := TravelDirection(from, to)
	if err != nil {
		return Step{}, err
	}
	return Step{
		From:     from,
		To:       to,
		Travel:   travel,
		Turn:     TurnAngle(travel, orientation),
		Distance: g.cellSize,
	}, nil
}

// roundToInt rounds half away from zero.
func roundToInt(v float64) int {
	return int(math.Round(v))
}
