package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCell(t *testing.T) {
	newFlooded := func(t *testing.T, goal Coord) *Grid {
		g, err := NewGrid(3, 3, 50)
		require.NoError(t, err)
		_, err = g.Flood(goal)
		require.NoError(t, err)
		return g
	}

	t.Run("prefers unvisited over cheaper visited", func(t *testing.T) {
		g := newFlooded(t, Coord{2, 2})
		require.NoError(t, g.MarkVisited(Coord{1, 2}))

		next, err := g.NextCell(Coord{1, 1})
		require.NoError(t, err)
		assert.Equal(t, Coord{2, 1}, next)
	})

	t.Run("ties break by x then y", func(t *testing.T) {
		g := newFlooded(t, Coord{2, 2})

		next, err := g.NextCell(Coord{0, 0})
		require.NoError(t, err)
		assert.Equal(t, Coord{0, 1}, next)
	})

	t.Run("falls back to cheapest visited", func(t *testing.T) {
		g := newFlooded(t, Coord{0, 0})
		for _, c := range []Coord{{0, 1}, {2, 1}, {1, 2}, {1, 0}} {
			require.NoError(t, g.MarkVisited(c))
		}

		next, err := g.NextCell(Coord{1, 1})
		require.NoError(t, err)
		// (0,1) and (1,0) both cost 1; (0,1) has the smaller x.
		assert.Equal(t, Coord{0, 1}, next)
	})

	t.Run("unvisited choice is the cheapest unvisited", func(t *testing.T) {
		g := newFlooded(t, Coord{0, 0})
		require.NoError(t, g.MarkVisited(Coord{0, 1}))

		next, err := g.NextCell(Coord{1, 1})
		require.NoError(t, err)
		assert.Equal(t, Coord{1, 0}, next)
	})

	t.Run("cornered", func(t *testing.T) {
		g := newFlooded(t, Coord{2, 2})
		require.NoError(t, g.Prune(Coord{1, 1}, nil))

		_, err := g.NextCell(Coord{1, 1})
		assert.ErrorIs(t, err, ErrCornered)
	})

	t.Run("single visited neighbor is still returned", func(t *testing.T) {
		g, err := NewGrid(3, 3, 50)
		require.NoError(t, err)

		// The vehicle came from (0,1) into (0,2) and every other way out
		// is walled off.
		require.NoError(t, g.MarkVisited(Coord{0, 1}))
		require.NoError(t, g.MarkVisited(Coord{0, 2}))
		require.NoError(t, g.Prune(Coord{0, 2}, []Coord{{0, 1}}))
		_, err = g.Flood(Coord{2, 2})
		require.NoError(t, err)

		next, err := g.NextCell(Coord{0, 2})
		require.NoError(t, err)
		assert.Equal(t, Coord{0, 1}, next)
	})

	t.Run("out of bounds", func(t *testing.T) {
		g := newFlooded(t, Coord{2, 2})
		_, err := g.NextCell(Coord{3, 0})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}
