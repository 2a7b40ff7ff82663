package device

import (
	"context"
	"io"
	"log"
	"math"
	"sync"

	"github.com/paulmach/orb"

	"MazeRover/internal/maze"
	"MazeRover/internal/model"
)

const (
	// ResetHeading is the heading reported right after ResetNavigation.
	ResetHeading = 90.0
	// SimWheelBase is the distance between the simulated wheels.
	SimWheelBase = 23.5
)

// SimRover is an in-memory rover in a walled arena of square cells. Cell
// (x, y) is centered at (x*cellSize, y*cellSize) in world coordinates; the
// pose it reports is relative to the odometry origin set by
// ResetNavigation, which starts at the start cell.
type SimRover struct {
	mu sync.Mutex

	width, height int
	cellSize      float64
	walls         map[edge]struct{}

	world   orb.Point
	heading float64
	origin  orb.Point
	offset  float64

	left, right float64
	timeStep    float64
	light       model.Color
	moves       int
	turns       int

	events chan model.Event
	logger *log.Logger
}

type edge struct{ a, b maze.Coord }

func newEdge(a, b maze.Coord) edge {
	if b.Less(a) {
		a, b = b, a
	}
	return edge{a, b}
}

// SimOption configures a SimRover.
type SimOption func(*SimRover)

// WithWalls blocks the listed cell boundaries.
func WithWalls(walls []model.Wall) SimOption {
	return func(s *SimRover) {
		for _, w := range walls {
			s.walls[newEdge(w.A, w.B)] = struct{}{}
		}
	}
}

// WithHeading sets the initial world heading.
func WithHeading(h float64) SimOption {
	return func(s *SimRover) { s.heading = maze.NormalizeHeading(h) }
}

// WithTimeStep sets how much simulated time passes per Pose call while the
// wheels are driven.
func WithTimeStep(dt float64) SimOption {
	return func(s *SimRover) { s.timeStep = dt }
}

// WithSimLogger sets the simulator logger.
func WithSimLogger(l *log.Logger) SimOption {
	return func(s *SimRover) { s.logger = l }
}

// NewSimRover places a rover at the center of start facing north.
func NewSimRover(width, height int, cellSize float64, start maze.Coord, opts ...SimOption) *SimRover {
	s := &SimRover{
		width:    width,
		height:   height,
		cellSize: cellSize,
		walls:    make(map[edge]struct{}),
		heading:  ResetHeading,
		timeStep: 1,
		events:   make(chan model.Event, 16),
		logger:   log.New(io.Discard, "", 0),
	}
	s.world = orb.Point{float64(start.X) * cellSize, float64(start.Y) * cellSize}
	s.origin = s.world
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pose advances the wheel motion by one time step and returns the odometry.
func (s *SimRover) Pose(ctx context.Context) (model.Pose, error) {
	if err := ctx.Err(); err != nil {
		return model.Pose{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return model.Pose{
		X:       s.world[0] - s.origin[0],
		Y:       s.world[1] - s.origin[1],
		Heading: maze.NormalizeHeading(s.heading - s.offset),
	}, nil
}

// Proximity returns seven IR readings. Sensors 0-1 look left, 2-4 ahead and
// 5-6 right of the nearest cardinal direction. Only the boundary of the
// current cell is sensed.
func (s *SimRover) Proximity(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := maze.Orientation(s.heading)
	left := s.reading(d.Left())
	ahead := s.reading(d)
	right := s.reading(d.Right())
	return []int{left, left, ahead, ahead, ahead, right, right}, nil
}

func (s *SimRover) reading(d maze.Direction) int {
	cell := s.cellOf(s.world)
	if !s.blocked(cell, cell.Add(d.Delta())) {
		return 0
	}
	delta := d.Delta()
	center := orb.Point{float64(cell.X) * s.cellSize, float64(cell.Y) * s.cellSize}
	boundary := s.cellSize / 2
	dist := boundary - ((s.world[0]-center[0])*float64(delta.X) + (s.world[1]-center[1])*float64(delta.Y))
	if dist < 1 {
		dist = 1
	}
	r := int(maze.ProximityScale/dist) - 1
	return min(max(r, 0), maze.ProximityScale)
}

// Turn rotates in place, positive clockwise.
func (s *SimRover) Turn(ctx context.Context, degrees float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heading = maze.NormalizeHeading(s.heading - degrees)
	s.turns++
	return nil
}

// Move drives straight. Hitting a wall stops the rover short and raises a
// bump event.
func (s *SimRover) Move(ctx context.Context, distance float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.travel(distance)
	s.moves++
	return nil
}

// Drive sets the wheel speeds. Motion happens as Pose is sampled.
func (s *SimRover) Drive(ctx context.Context, left, right float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left, s.right = left, right
	return nil
}

// ResetNavigation makes the current position the odometry origin with
// heading ResetHeading.
func (s *SimRover) ResetNavigation(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origin = s.world
	s.offset = s.heading - ResetHeading
	return nil
}

// Stop halts the wheels. It ignores cancellation so a fail-safe can always
// stop the rover.
func (s *SimRover) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left, s.right = 0, 0
	return nil
}

// SetLight sets the light ring.
func (s *SimRover) SetLight(_ context.Context, c model.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.light = c
	return nil
}

// Events returns bump and button reports. When Serve is running it forwards
// them over the link instead.
func (s *SimRover) Events() <-chan model.Event { return s.events }

// Bump reports a bumper hit.
func (s *SimRover) Bump(left, right bool) {
	s.emit(model.Event{Kind: model.EventBump, Left: left, Right: right})
}

// PressButton reports a user button press.
func (s *SimRover) PressButton(first, second bool) {
	s.emit(model.Event{Kind: model.EventButton, Left: first, Right: second})
}

// Cell returns the cell the rover is in.
func (s *SimRover) Cell() maze.Coord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cellOf(s.world)
}

// Light returns the current light color.
func (s *SimRover) Light() model.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.light
}

// Moves returns the number of Move commands executed.
func (s *SimRover) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// Turns returns the number of Turn commands executed.
func (s *SimRover) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Driving reports whether either wheel has a non-zero speed.
func (s *SimRover) Driving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left != 0 || s.right != 0
}

func (s *SimRover) emit(e model.Event) {
	select {
	case s.events <- e:
	default:
		s.logger.Printf("[sim] event dropped: %s", e.Kind)
	}
}

// advance integrates one time step of differential drive.
func (s *SimRover) advance() {
	if s.left == 0 && s.right == 0 {
		return
	}
	omega := (s.right - s.left) / SimWheelBase
	s.heading = maze.NormalizeHeading(s.heading + omega*s.timeStep*180/math.Pi)
	if !s.travel((s.left + s.right) / 2 * s.timeStep) {
		s.left, s.right = 0, 0
	}
}

// travel moves along the heading in quarter-cell steps. It returns false if
// a wall stopped the rover.
func (s *SimRover) travel(distance float64) bool {
	n := int(math.Ceil(math.Abs(distance) / (s.cellSize / 4)))
	if n == 0 {
		return true
	}
	step := distance / float64(n)
	rad := s.heading * math.Pi / 180
	dx, dy := step*math.Cos(rad), step*math.Sin(rad)

	for range n {
		next := orb.Point{s.world[0] + dx, s.world[1] + dy}
		from, to := s.cellOf(s.world), s.cellOf(next)
		if from != to && s.crossingBlocked(from, to) {
			s.logger.Printf("[sim] bump at %s heading %.1f", from, s.heading)
			s.emit(model.Event{Kind: model.EventBump, Left: true, Right: true})
			return false
		}
		s.world = next
	}
	return true
}

func (s *SimRover) crossingBlocked(from, to maze.Coord) bool {
	if from.X != to.X && from.Y != to.Y {
		// Corner crossing: open if either L-shaped path is open.
		viaX := maze.Coord{X: to.X, Y: from.Y}
		viaY := maze.Coord{X: from.X, Y: to.Y}
		return (s.blocked(from, viaX) || s.blocked(viaX, to)) &&
			(s.blocked(from, viaY) || s.blocked(viaY, to))
	}
	return s.blocked(from, to)
}

// blocked reports whether the boundary between adjacent cells a and b is a
// wall. The arena edge is always a wall.
func (s *SimRover) blocked(a, b maze.Coord) bool {
	if !s.inBounds(a) || !s.inBounds(b) {
		return true
	}
	_, ok := s.walls[newEdge(a, b)]
	return ok
}

func (s *SimRover) inBounds(c maze.Coord) bool {
	return c.X >= 0 && c.X < s.width && c.Y >= 0 && c.Y < s.height
}

func (s *SimRover) cellOf(p orb.Point) maze.Coord {
	return maze.Coord{
		X: int(math.Round(p[0] / s.cellSize)),
		Y: int(math.Round(p[1] / s.cellSize)),
	}
}
