package delivery

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"MazeRover/internal/maze"
)

// IRAngles are the mounting angles of the seven proximity sensors in
// degrees, negative to the left.
var IRAngles = [maze.SensorCount]float64{-65.3, -38.0, -20.0, -3.0, 14.25, 34.0, 65.3}

// MinProximity returns the smallest distance seen by any sensor, rounded
// to three decimals, and the angle of that sensor. Ties go to the lowest
// sensor index. With no readings the distance is +Inf.
func MinProximity(readings []int) (distance, angle float64) {
	distance = math.Inf(1)
	best := -1
	for i, r := range readings {
		if i >= len(IRAngles) {
			break
		}
		if d := maze.ProximityDistance(r); d < distance {
			distance = d
			best = i
		}
	}
	if best < 0 {
		return distance, 0
	}
	return math.Round(distance*1000) / 1000, IRAngles[best]
}

// CorrectionAngle is the clockwise turn that points a rover with the given
// heading back to 90 degrees, truncated to whole degrees.
func CorrectionAngle(heading float64) int {
	return int(heading - 90)
}

// AngleToDestination is the clockwise turn from a rover facing 90 degrees
// to the bearing of dest, in whole degrees within [-180, 180]. The offset is
// truncated to whole units first.
func AngleToDestination(p, dest orb.Point) int {
	x := math.Trunc(dest.X() - p.X())
	y := math.Trunc(dest.Y() - p.Y())
	bearing := math.Atan2(y, x) * 180 / math.Pi
	// Drop float noise so exact bearings truncate to themselves.
	bearing = math.Round(bearing*1e9) / 1e9
	return int(-(floorMod(bearing-90+180, 360) - 180))
}

// Arrived reports whether p is within threshold of dest.
func Arrived(p, dest orb.Point, threshold float64) bool {
	return planar.Distance(p, dest) <= threshold
}

// floorMod is the modulo whose result takes the sign of m.
func floorMod(a, m float64) float64 {
	return a - m*math.Floor(a/m)
}
