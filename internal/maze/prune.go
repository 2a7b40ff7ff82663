package maze

// NavigableNeighbors filters the candidate list of a cell against the sensed
// walls. The three forward candidates are kept when no wall was sensed on
// their side. The cell behind is kept only when it is the cell the vehicle
// came from, or when there is no previous cell yet. Out-of-bounds candidates
// are always dropped.
func (g *Grid) NavigableNeighbors(candidates [4]Coord, walls Walls, previous *Coord) []Coord {
	navigable := make([]Coord, 0, len(candidates))
	for i := 0; i < len(walls); i++ {
		if !walls[i] && g.InBounds(candidates[i]) {
			navigable = append(navigable, candidates[i])
		}
	}

	behind := candidates[3]
	if g.InBounds(behind) && (previous == nil || *previous == behind) {
		navigable = append(navigable, behind)
	}
	return navigable
}

// Prune makes navigable the authoritative neighbor list of current. Every
// other cell that still lists current but is not in navigable loses that
// back-edge first.
//
// Only the back-edges of current's lattice neighbors are inspected, since no
// other cell can list current.
func (g *Grid) Prune(current Coord, navigable []Coord) error {
	cell := g.Cell(current)
	if cell == nil {
		return ErrOutOfBounds
	}

	for _, d := range []Direction{North, West, South, East} {
		other := g.Cell(current.Add(d.Delta()))
		if other == nil || containsCoord(navigable, other.Coord) {
			continue
		}
		other.Neighbors = removeCoord(other.Neighbors, current)
	}

	kept := make([]Coord, 0, len(navigable))
	for _, n := range navigable {
		if _, err := TravelDirection(current, n); err != nil {
			continue
		}
		if g.InBounds(n) && !containsCoord(kept, n) {
			kept = append(kept, n)
		}
	}
	cell.Neighbors = kept
	return nil
}

func removeCoord(list []Coord, c Coord) []Coord {
	out := list[:0]
	for _, v := range list {
		if v != c {
			out = append(out, v)
		}
	}
	return out
}
