package maze

const (
	// ProximityScale converts a raw IR magnitude into a distance estimate.
	ProximityScale = 4095.0

	// Indices of the front-left, front-center and front-right sensors in the
	// 7-element proximity array.
	SensorLeft   = 0
	SensorCenter = 3
	SensorRight  = 6

	// SensorCount is the minimum length of a proximity reading.
	SensorCount = 7
)

// Walls holds the sensed wall flags in candidate order: left, center, right.
type Walls [3]bool

// Left reports a wall on the vehicle's left.
func (w Walls) Left() bool { return w[0] }

// Center reports a wall straight ahead.
func (w Walls) Center() bool { return w[1] }

// Right reports a wall on the vehicle's right.
func (w Walls) Right() bool { return w[2] }

// ProximityDistance converts a raw proximity magnitude to a distance.
// Larger readings mean closer obstacles.
func ProximityDistance(reading int) float64 {
	return ProximityScale / float64(reading+1)
}

// DetectWalls flags a wall for each of the three front readings whose
// distance estimate is within threshold.
func DetectWalls(left, center, right int, threshold float64) Walls {
	return Walls{
		ProximityDistance(left) <= threshold,
		ProximityDistance(center) <= threshold,
		ProximityDistance(right) <= threshold,
	}
}

// WallsFromReadings picks the left, center and right sensors from a full
// proximity array. ok is false when the array is too short.
func WallsFromReadings(readings []int, threshold float64) (w Walls, ok bool) {
	if len(readings) < SensorCount {
		return Walls{}, false
	}
	return DetectWalls(readings[SensorLeft], readings[SensorCenter], readings[SensorRight], threshold), true
}
