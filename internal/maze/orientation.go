package maze

import (
	"fmt"
	"math"
)

// Direction is one of the four cardinal directions. The constants are
// ordered counter-clockwise, so the next value is always a left turn.
type Direction int

const (
	North Direction = iota
	West
	South
	East
)

var directionNames = [...]string{"N", "W", "S", "E"}

// Headings of the cardinal axes, counter-clockwise from +x.
var directionHeadings = [...]float64{90, 180, 270, 0}

// Grid deltas; north is +y.
var directionDeltas = [...]Coord{{0, 1}, {-1, 0}, {0, -1}, {1, 0}}

func (d Direction) String() string {
	if d < North || d > East {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the single-letter labels produced by String.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("invalid direction %q", s)
}

// Delta is the grid step taken when moving one cell in d.
func (d Direction) Delta() Coord { return directionDeltas[d] }

// Heading is the canonical heading of d in degrees.
func (d Direction) Heading() float64 { return directionHeadings[d] }

// Left is d rotated 90 degrees counter-clockwise.
func (d Direction) Left() Direction { return (d + 1) % 4 }

// Right is d rotated 90 degrees clockwise.
func (d Direction) Right() Direction { return (d + 3) % 4 }

// Opposite is d rotated 180 degrees.
func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// NormalizeHeading wraps a heading into [0, 360).
func NormalizeHeading(heading float64) float64 {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// Orientation discretizes a heading into a cardinal direction.
//
// Buckets are (45,135] north, (135,225] west, (225,315] south and east
// otherwise, so a heading on a boundary falls to its clockwise side.
func Orientation(heading float64) Direction {
	h := NormalizeHeading(heading)
	switch {
	case h > 45 && h <= 135:
		return North
	case h > 135 && h <= 225:
		return West
	case h > 225 && h <= 315:
		return South
	default:
		return East
	}
}

// Candidates lists the four neighbors of c as seen from orientation d, in
// the order left, ahead, right, behind. Entries 0 to 2 line up with the
// left, center and right proximity sensors. Coordinates may lie outside the
// grid.
func Candidates(c Coord, d Direction) [4]Coord {
	return [4]Coord{
		c.Add(d.Left().Delta()),
		c.Add(d.Delta()),
		c.Add(d.Right().Delta()),
		c.Add(d.Opposite().Delta()),
	}
}
