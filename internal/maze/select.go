package maze

import (
	"errors"
	"sort"
)

// ErrCornered is returned when the current cell has no navigable neighbor.
var ErrCornered = errors.New("no navigable neighbor")

// NextCell picks where to go from current. Unvisited neighbors win over
// visited ones; within a group the lowest cost wins and ties go to the
// smallest coordinate.
func (g *Grid) NextCell(current Coord) (Coord, error) {
	cell := g.Cell(current)
	if cell == nil {
		return Coord{}, ErrOutOfBounds
	}

	var visited, fresh []*Cell
	for _, n := range cell.Neighbors {
		c := g.Cell(n)
		if c.Visited {
			visited = append(visited, c)
		} else {
			fresh = append(fresh, c)
		}
	}

	if best, ok := cheapest(fresh); ok {
		return best, nil
	}
	if best, ok := cheapest(visited); ok {
		return best, nil
	}
	return Coord{}, ErrCornered
}

func cheapest(cells []*Cell) (Coord, bool) {
	if len(cells) == 0 {
		return Coord{}, false
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Cost != cells[j].Cost {
			return cells[i].Cost < cells[j].Cost
		}
		return cells[i].Coord.Less(cells[j].Coord)
	})
	return cells[0].Coord, true
}
