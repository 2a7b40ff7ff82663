package maze

import (
	"fmt"
	"math"
)

// Unreachable is the cost given to cells the latest flood did not reach
// under the ResetUnreached policy. It sorts after every real cost.
const Unreachable = math.MaxInt32

// CostPolicy decides what Flood does with the cost of cells it cannot reach.
type CostPolicy int

const (
	// ResetUnreached sets unreached cells to Unreachable.
	ResetUnreached CostPolicy = iota
	// KeepStale leaves unreached cells with the cost of an earlier flood.
	KeepStale
)

func (p CostPolicy) String() string {
	switch p {
	case ResetUnreached:
		return "reset"
	case KeepStale:
		return "stale"
	default:
		return fmt.Sprintf("CostPolicy(%d)", int(p))
	}
}

// ParseCostPolicy maps "reset" or "stale" to a policy. Empty means reset.
func ParseCostPolicy(s string) (CostPolicy, error) {
	switch s {
	case "", "reset":
		return ResetUnreached, nil
	case "stale":
		return KeepStale, nil
	default:
		return ResetUnreached, fmt.Errorf("invalid cost policy %q", s)
	}
}

// Flood recomputes the hop distance from goal for every cell reachable over
// the current neighbor lists. It returns the number of cells reached.
func (g *Grid) Flood(goal Coord) (int, error) {
	start := g.Cell(goal)
	if start == nil {
		return 0, fmt.Errorf("%w: goal %s", ErrOutOfBounds, goal)
	}

	g.each(func(c *Cell) {
		c.Flooded = false
	})

	start.Cost = 0
	start.Flooded = true
	reached := 1

	queue := []Coord{goal}
	for len(queue) > 0 {
		current := g.Cell(queue[0])
		queue = queue[1:]

		for _, n := range current.Neighbors {
			next := g.Cell(n)
			if next.Flooded {
				continue
			}
			next.Flooded = true
			next.Cost = current.Cost + 1
			reached++
			queue = append(queue, n)
		}
	}

	if g.policy == ResetUnreached {
		g.each(func(c *Cell) {
			if !c.Flooded {
				c.Cost = Unreachable
			}
		})
	}
	return reached, nil
}
