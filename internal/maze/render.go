package maze

import (
	"fmt"
	"strings"
)

// Attribute selects the per-cell value printed by Render.
type Attribute string

const (
	AttrCost    Attribute = "cost"
	AttrVisited Attribute = "visited"
	AttrFlooded Attribute = "flooded"
)

// Render prints one attribute of every cell as a table, top row first.
func (g *Grid) Render(attr Attribute) string {
	var b strings.Builder
	for y := g.height - 1; y >= 0; y-- {
		b.WriteString("|")
		for x := 0; x < g.width; x++ {
			fmt.Fprintf(&b, " %s |", g.cellValue(&g.cells[x][y], attr))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (g *Grid) cellValue(c *Cell, attr Attribute) string {
	switch attr {
	case AttrVisited:
		return fmt.Sprintf("%t", c.Visited)
	case AttrFlooded:
		return fmt.Sprintf("%t", c.Flooded)
	default:
		if c.Cost == Unreachable {
			return "-"
		}
		return fmt.Sprintf("%d", c.Cost)
	}
}

// String draws the grid with a wall wherever two lattice neighbors are no
// longer connected in either direction. North is up; visited cells are
// marked with a dot.
func (g *Grid) String() string {
	var b strings.Builder
	b.WriteString("+" + strings.Repeat("---+", g.width) + "\n")

	for y := g.height - 1; y >= 0; y-- {
		row := "|"
		for x := 0; x < g.width; x++ {
			c := Coord{X: x, Y: y}
			mark := "   "
			if g.cells[x][y].Visited {
				mark = " . "
			}
			row += mark
			if x == g.width-1 || !g.connected(c, Coord{X: x + 1, Y: y}) {
				row += "|"
			} else {
				row += " "
			}
		}
		b.WriteString(row + "\n")

		wall := "+"
		for x := 0; x < g.width; x++ {
			if y == 0 || !g.connected(Coord{X: x, Y: y}, Coord{X: x, Y: y - 1}) {
				wall += "---+"
			} else {
				wall += "   +"
			}
		}
		b.WriteString(wall + "\n")
	}
	return b.String()
}

func (g *Grid) connected(a, b Coord) bool {
	return g.HasEdge(a, b) || g.HasEdge(b, a)
}

// CostTable returns a copy of all costs indexed [x][y]. Cells the latest
// flood did not reach report -1.
func (g *Grid) CostTable() [][]int {
	table := make([][]int, g.width)
	for x := range table {
		table[x] = make([]int, g.height)
		for y := range table[x] {
			c := &g.cells[x][y]
			if !c.Flooded {
				table[x][y] = -1
				continue
			}
			table[x][y] = c.Cost
		}
	}
	return table
}
