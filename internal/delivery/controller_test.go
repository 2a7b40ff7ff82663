package delivery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MazeRover/internal/device"
	"MazeRover/internal/maze"
	"MazeRover/internal/model"
)

func TestMinProximity(t *testing.T) {
	tests := []struct {
		name     string
		readings []int
		distance float64
		angle    float64
	}{
		{"all clear", []int{0, 0, 0, 0, 0, 0, 0}, 4095, -65.3},
		{"right obstacle", []int{0, 0, 0, 0, 0, 300, 0}, 13.605, 34.0},
		{"tie keeps lowest index", []int{400, 0, 0, 0, 0, 0, 400}, 10.212, -65.3},
		{"center", []int{0, 0, 0, 4094, 0, 0, 0}, 1, -3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, a := MinProximity(tt.readings)
			assert.InDelta(t, tt.distance, d, 1e-9)
			assert.Equal(t, tt.angle, a)
		})
	}

	d, _ := MinProximity(nil)
	assert.True(t, math.IsInf(d, 1))
}

func TestCorrectionAngle(t *testing.T) {
	assert.Equal(t, 0, CorrectionAngle(90))
	assert.Equal(t, 30, CorrectionAngle(120.7))
	assert.Equal(t, -44, CorrectionAngle(45.5))
	assert.Equal(t, 269, CorrectionAngle(359.9))
}

func TestAngleToDestination(t *testing.T) {
	origin := orb.Point{0, 0}
	tests := []struct {
		dest orb.Point
		want int
	}{
		{orb.Point{0, 100}, 0},
		{orb.Point{100, 0}, 90},
		{orb.Point{-100, 0}, -90},
		{orb.Point{0, -100}, 180},
		{orb.Point{100, 100}, 45},
		{orb.Point{-100, 100}, -45},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.dest), func(t *testing.T) {
			assert.Equal(t, tt.want, AngleToDestination(origin, tt.dest))
		})
	}

	// Offsets are truncated before the bearing is taken.
	assert.Equal(t, 0, AngleToDestination(orb.Point{0.9, 0}, orb.Point{0, 100}))
}

func TestArrived(t *testing.T) {
	dest := orb.Point{0, 100}
	assert.True(t, Arrived(orb.Point{3, 96}, dest, 5))
	assert.True(t, Arrived(orb.Point{0, 95}, dest, 5))
	assert.False(t, Arrived(orb.Point{0, 94.9}, dest, 5))
}

// scriptedDrive replays poses and readings and records every command.
type scriptedDrive struct {
	poses    []model.Pose
	readings [][]int
	log      []string
	poseErr  error
}

func (s *scriptedDrive) Pose(context.Context) (model.Pose, error) {
	s.log = append(s.log, "POSE")
	if s.poseErr != nil {
		return model.Pose{}, s.poseErr
	}
	p := s.poses[0]
	if len(s.poses) > 1 {
		s.poses = s.poses[1:]
	}
	return p, nil
}

func (s *scriptedDrive) Proximity(context.Context) ([]int, error) {
	s.log = append(s.log, "IR")
	r := s.readings[0]
	if len(s.readings) > 1 {
		s.readings = s.readings[1:]
	}
	return r, nil
}

func (s *scriptedDrive) Turn(_ context.Context, deg float64) error {
	s.log = append(s.log, fmt.Sprintf("TURN %g", deg))
	return nil
}

func (s *scriptedDrive) Move(_ context.Context, dist float64) error {
	s.log = append(s.log, fmt.Sprintf("MOVE %g", dist))
	return nil
}

func (s *scriptedDrive) Drive(_ context.Context, l, r float64) error {
	s.log = append(s.log, fmt.Sprintf("DRIVE %g %g", l, r))
	return nil
}

func (s *scriptedDrive) ResetNavigation(context.Context) error {
	s.log = append(s.log, "RESETNAV")
	return nil
}

func (s *scriptedDrive) SetLight(_ context.Context, c model.Color) error {
	s.log = append(s.log, fmt.Sprintf("LED %d %d %d", c.R, c.G, c.B))
	return nil
}

func TestControllerFollowsObstacle(t *testing.T) {
	start := model.Pose{X: 0, Y: 0, Heading: 90}
	d := &scriptedDrive{
		poses: []model.Pose{start, start, start, start, start, {X: 0, Y: 100, Heading: 90}},
		readings: [][]int{
			{0, 0, 0, 0, 0, 300, 0}, // obstacle on the right
			{0, 0, 0, 0, 0, 0, 300}, // too close: edge away
			{0, 0, 0, 0, 0, 0, 60},  // alongside: keep driving
			{0, 0, 0, 0, 0, 0, 0},   // cleared
		},
	}
	res := NewController(d, Params{Destination: orb.Point{0, 100}}).Run(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, model.Arrived, res.Outcome)
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, []string{
		"RESETNAV",
		"POSE", "POSE", "DRIVE 0 0", "TURN 0", "TURN 0", "IR", "DRIVE 0 0", "TURN -56",
		"POSE", "IR", "TURN -3",
		"POSE", "IR", "DRIVE 10 10",
		"POSE", "IR", "DRIVE 0 0", "MOVE 30", "IR", "DRIVE 10 10",
		"POSE", "DRIVE 0 0", "LED 0 255 0",
	}, d.log)
}

func TestControllerRealign(t *testing.T) {
	d := &scriptedDrive{
		poses:    []model.Pose{{Heading: 120}},
		readings: [][]int{{0, 0, 0, 4094, 0, 0, 0}},
	}
	res := NewController(d, Params{Destination: orb.Point{100, 0}, MaxIterations: 1}).Run(context.Background())
	assert.ErrorIs(t, res.Err, ErrIterationLimit)
	assert.Equal(t, model.Failed, res.Outcome)
	// Obstacle just left of center: turn right and keep it on the left.
	assert.Equal(t, []string{
		"RESETNAV",
		"POSE", "POSE", "DRIVE 0 0", "TURN 30", "TURN 90", "IR", "DRIVE 0 0", "TURN 87",
		"DRIVE 0 0",
	}, d.log)
}

func TestControllerCancelled(t *testing.T) {
	d := &scriptedDrive{poses: []model.Pose{{Heading: 90}}, readings: [][]int{make([]int, 7)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewController(d, Params{Destination: orb.Point{0, 100}}).Run(ctx)
	assert.Equal(t, model.Cancelled, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, d.log)
}

func TestControllerPoseError(t *testing.T) {
	boom := errors.New("link down")
	d := &scriptedDrive{poseErr: boom}
	res := NewController(d, Params{Destination: orb.Point{0, 100}}).Run(context.Background())
	assert.Equal(t, model.Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
}

func TestControllerAgainstSim(t *testing.T) {
	sim := device.NewSimRover(5, 5, 50, maze.Coord{X: 2, Y: 0})
	res := NewController(sim, Params{Destination: orb.Point{0, 100}, MaxIterations: 50}).Run(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, model.Arrived, res.Outcome)
	assert.Equal(t, 11, res.Iterations)
	assert.Equal(t, maze.Coord{X: 2, Y: 2}, sim.Cell())
	assert.Equal(t, model.Green, sim.Light())
	assert.False(t, sim.Driving())
}
