package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestFloodOpenGrid(t *testing.T) {
	g, err := NewGrid(4, 3, 50)
	require.NoError(t, err)

	goal := Coord{3, 2}
	reached, err := g.Flood(goal)
	require.NoError(t, err)
	assert.Equal(t, 12, reached)

	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			c := g.Cell(Coord{x, y})
			assert.True(t, c.Flooded)
			assert.Equal(t, abs(goal.X-x)+abs(goal.Y-y), c.Cost, "cell (%d,%d)", x, y)
		}
	}
}

func TestFloodFollowsWalls(t *testing.T) {
	g, err := NewGrid(3, 3, 50)
	require.NoError(t, err)

	// A wall east of (0,0) and east of (0,1) forces the left column to go
	// through (0,2).
	require.NoError(t, g.Prune(Coord{0, 0}, []Coord{{0, 1}}))
	require.NoError(t, g.Prune(Coord{0, 1}, []Coord{{0, 2}, {0, 0}}))

	_, err = g.Flood(Coord{2, 0})
	require.NoError(t, err)

	assert.Equal(t, 0, g.Cell(Coord{2, 0}).Cost)
	assert.Equal(t, 4, g.Cell(Coord{0, 2}).Cost)
	assert.Equal(t, 5, g.Cell(Coord{0, 1}).Cost)
	assert.Equal(t, 6, g.Cell(Coord{0, 0}).Cost)
	assert.Equal(t, 1, g.Cell(Coord{1, 0}).Cost)
}

func TestFloodUnreachedCells(t *testing.T) {
	isolate := func(g *Grid) {
		require.NoError(t, g.Prune(Coord{0, 0}, nil))
	}

	t.Run("reset policy", func(t *testing.T) {
		g, err := NewGrid(3, 3, 50)
		require.NoError(t, err)
		_, err = g.Flood(Coord{2, 2})
		require.NoError(t, err)
		require.Equal(t, 4, g.Cell(Coord{0, 0}).Cost)

		isolate(g)
		reached, err := g.Flood(Coord{2, 2})
		require.NoError(t, err)
		assert.Equal(t, 8, reached)
		assert.False(t, g.Cell(Coord{0, 0}).Flooded)
		assert.Equal(t, Unreachable, g.Cell(Coord{0, 0}).Cost)
	})

	t.Run("stale policy", func(t *testing.T) {
		g, err := NewGrid(3, 3, 50, WithCostPolicy(KeepStale))
		require.NoError(t, err)
		_, err = g.Flood(Coord{2, 2})
		require.NoError(t, err)

		isolate(g)
		_, err = g.Flood(Coord{2, 2})
		require.NoError(t, err)
		assert.False(t, g.Cell(Coord{0, 0}).Flooded)
		assert.Equal(t, 4, g.Cell(Coord{0, 0}).Cost)
	})
}

func TestFloodGoal(t *testing.T) {
	g, err := NewGrid(2, 2, 50)
	require.NoError(t, err)

	require.NoError(t, g.Prune(Coord{1, 1}, nil))
	_, err = g.Flood(Coord{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Cell(Coord{1, 1}).Cost)
	assert.True(t, g.Cell(Coord{1, 1}).Flooded)

	_, err = g.Flood(Coord{2, 0})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestParseCostPolicy(t *testing.T) {
	p, err := ParseCostPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ResetUnreached, p)

	p, err = ParseCostPolicy("stale")
	require.NoError(t, err)
	assert.Equal(t, KeepStale, p)
	assert.Equal(t, "stale", p.String())

	_, err = ParseCostPolicy("random")
	assert.Error(t, err)
}
