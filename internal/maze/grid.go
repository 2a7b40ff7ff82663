/*
Package maze holds the discovery and replanning engine for a rectangular grid
arena: the grid graph, wall interpretation from proximity sensors,
orientation handling, edge pruning, wavefront flooding and next-cell
selection.

The grid starts fully 4-connected. As the vehicle senses walls, edges are
removed and the wavefront from the destination is recomputed over whatever
connectivity is left.
*/
package maze

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrInvalidCellSize   = errors.New("cell size must be positive")
	ErrOutOfBounds       = errors.New("coordinate out of grid bounds")
)

// Coord addresses a cell by integer grid indices.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns c shifted by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{X: c.X + d.X, Y: c.Y + d.Y}
}

// Less orders coordinates by x, then y.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Cell is the per-cell state kept by the grid.
type Cell struct {
	Coord     Coord     // Grid indices of the cell.
	Position  orb.Point // World position, Coord scaled by the cell size.
	Neighbors []Coord   // Cells currently believed reachable from here.
	Visited   bool      // True once the vehicle has occupied the cell.
	Cost      int       // Hop distance to the goal from the latest flood.
	Flooded   bool      // True if the latest flood assigned Cost.
}

// Grid is a dense nX by nY graph of cells, indexed [x][y].
type Grid struct {
	width    int
	height   int
	cellSize float64
	policy   CostPolicy
	cells    [][]Cell
}

// Option customizes a Grid.
type Option func(*Grid)

// WithCostPolicy selects how Flood treats cells it does not reach.
func WithCostPolicy(p CostPolicy) Option {
	return func(g *Grid) {
		g.policy = p
	}
}

// NewGrid builds a width by height grid where every cell is connected to all
// of its in-bounds 4-neighbors.
func NewGrid(width, height int, cellSize float64, options ...Option) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if cellSize <= 0 {
		return nil, ErrInvalidCellSize
	}

	g := &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		policy:   ResetUnreached,
	}
	for _, opt := range options {
		opt(g)
	}

	g.cells = make([][]Cell, width)
	for x := range g.cells {
		g.cells[x] = make([]Cell, height)
		for y := range g.cells[x] {
			c := Coord{X: x, Y: y}
			g.cells[x][y] = Cell{
				Coord:     c,
				Position:  orb.Point{float64(x) * cellSize, float64(y) * cellSize},
				Neighbors: g.lattice(c),
			}
		}
	}
	return g, nil
}

// lattice lists the in-bounds 4-neighbors of c in the order
// west, north, east, south.
func (g *Grid) lattice(c Coord) []Coord {
	neighbors := make([]Coord, 0, 4)
	for _, d := range []Direction{West, North, East, South} {
		n := c.Add(d.Delta())
		if g.InBounds(n) {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// CellSize returns the edge length of one cell in world units.
func (g *Grid) CellSize() float64 { return g.cellSize }

// InBounds reports whether c addresses a cell of the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Cell returns the cell at c, or nil when c is out of bounds.
func (g *Grid) Cell(c Coord) *Cell {
	if !g.InBounds(c) {
		return nil
	}
	return &g.cells[c.X][c.Y]
}

// Neighbors returns a copy of the neighbor list of c.
func (g *Grid) Neighbors(c Coord) []Coord {
	cell := g.Cell(c)
	if cell == nil {
		return nil
	}
	return append([]Coord(nil), cell.Neighbors...)
}

// HasEdge reports whether b is in a's neighbor list.
func (g *Grid) HasEdge(a, b Coord) bool {
	cell := g.Cell(a)
	if cell == nil {
		return false
	}
	return containsCoord(cell.Neighbors, b)
}

// MarkVisited flags the cell at c as occupied by the vehicle.
func (g *Grid) MarkVisited(c Coord) error {
	cell := g.Cell(c)
	if cell == nil {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	cell.Visited = true
	return nil
}

// CellAt converts a world position, measured relative to origin's world
// position, to the nearest grid coordinate.
func (g *Grid) CellAt(p orb.Point, origin Coord) (Coord, error) {
	c := Coord{
		X: roundToInt(p.X()/g.cellSize) + origin.X,
		Y: roundToInt(p.Y()/g.cellSize) + origin.Y,
	}
	if !g.InBounds(c) {
		return c, fmt.Errorf("%w: %s from position (%.1f, %.1f)", ErrOutOfBounds, c, p.X(), p.Y())
	}
	return c, nil
}

// each calls fn for every cell, column by column.
func (g *Grid) each(fn func(*Cell)) {
	for x := range g.cells {
		for y := range g.cells[x] {
			fn(&g.cells[x][y])
		}
	}
}

func containsCoord(list []Coord, c Coord) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
