package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigableNeighbors(t *testing.T) {
	g, err := NewGrid(3, 3, 50)
	require.NoError(t, err)

	start := Coord{0, 0}
	prev := Coord{1, 0}
	other := Coord{2, 2}

	tests := []struct {
		name        string
		current     Coord
		orientation Direction
		walls       Walls
		previous    *Coord
		want        []Coord
	}{
		{"start of run keeps behind", Coord{1, 1}, North, Walls{}, nil,
			[]Coord{{0, 1}, {1, 2}, {2, 1}, {1, 0}}},
		{"corner drops out of bounds", start, North, Walls{}, nil,
			[]Coord{{0, 1}, {1, 0}}},
		{"walls remove forward candidates", Coord{1, 1}, East, Walls{true, false, true}, &prev,
			[]Coord{{2, 1}}},
		{"behind kept when it is previous", Coord{1, 1}, North, Walls{false, true, false}, &prev,
			[]Coord{{0, 1}, {2, 1}, {1, 0}}},
		{"behind dropped when not previous", Coord{1, 1}, North, Walls{}, &other,
			[]Coord{{0, 1}, {1, 2}, {2, 1}}},
		{"all walls and foreign previous", Coord{1, 1}, South, Walls{true, true, true}, &other,
			[]Coord{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.NavigableNeighbors(Candidates(tt.current, tt.orientation), tt.walls, tt.previous)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNavigableNeighborsSubsetOfCandidates(t *testing.T) {
	g, err := NewGrid(3, 2, 50)
	require.NoError(t, err)

	for x := 0; x < 3; x++ {
		for y := 0; y < 2; y++ {
			c := Coord{x, y}
			for _, d := range []Direction{North, West, South, East} {
				candidates := Candidates(c, d)
				for mask := 0; mask < 8; mask++ {
					walls := Walls{mask&1 != 0, mask&2 != 0, mask&4 != 0}
					for _, prev := range []*Coord{nil, &candidates[3], &candidates[0]} {
						for _, n := range g.NavigableNeighbors(candidates, walls, prev) {
							assert.Contains(t, candidates[:], n)
							assert.True(t, g.InBounds(n))
							assert.Contains(t, g.lattice(c), n)
						}
					}
				}
			}
		}
	}
}

func TestPrune(t *testing.T) {
	t.Run("removes back edges", func(t *testing.T) {
		g, err := NewGrid(3, 3, 50)
		require.NoError(t, err)

		center := Coord{1, 1}
		require.NoError(t, g.Prune(center, []Coord{{1, 2}}))

		assert.Equal(t, []Coord{{1, 2}}, g.Neighbors(center))
		assert.Contains(t, g.Neighbors(Coord{1, 2}), center)
		assert.NotContains(t, g.Neighbors(Coord{0, 1}), center)
		assert.NotContains(t, g.Neighbors(Coord{2, 1}), center)
		assert.NotContains(t, g.Neighbors(Coord{1, 0}), center)
		// Unrelated edges survive.
		assert.Contains(t, g.Neighbors(Coord{0, 1}), Coord{0, 0})
	})

	t.Run("never adds non lattice edges", func(t *testing.T) {
		g, err := NewGrid(3, 3, 50)
		require.NoError(t, err)

		require.NoError(t, g.Prune(Coord{0, 0}, []Coord{{1, 1}, {0, 1}, {0, 1}, {-1, 0}}))
		assert.Equal(t, []Coord{{0, 1}}, g.Neighbors(Coord{0, 0}))
	})

	t.Run("edge count never grows", func(t *testing.T) {
		g, err := NewGrid(4, 4, 50)
		require.NoError(t, err)

		count := func() int {
			n := 0
			for x := 0; x < 4; x++ {
				for y := 0; y < 4; y++ {
					n += len(g.Neighbors(Coord{x, y}))
				}
			}
			return n
		}

		before := count()
		steps := []struct {
			c Coord
			d Direction
			w Walls
		}{
			{Coord{0, 0}, North, Walls{false, false, true}},
			{Coord{0, 1}, North, Walls{false, true, false}},
			{Coord{1, 1}, East, Walls{true, false, false}},
			{Coord{2, 1}, East, Walls{false, false, false}},
		}
		var prev *Coord
		for _, s := range steps {
			nav := g.NavigableNeighbors(Candidates(s.c, s.d), s.w, prev)
			require.NoError(t, g.Prune(s.c, nav))
			after := count()
			assert.LessOrEqual(t, after, before)
			before = after
			c := s.c
			prev = &c
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		g, err := NewGrid(2, 2, 50)
		require.NoError(t, err)
		assert.ErrorIs(t, g.Prune(Coord{5, 5}, nil), ErrOutOfBounds)
	})
}
