// Package nav runs maze navigation sessions: one sense, prune, flood,
// select, move iteration at a time against a Rover.
package nav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"MazeRover/internal/maze"
	"MazeRover/internal/model"
)

// DefaultCommandTimeout bounds a single rover command.
const DefaultCommandTimeout = 10 * time.Second

var (
	ErrStepLimit     = errors.New("step limit reached")
	ErrFinished      = errors.New("session already finished")
	ErrShortReading  = errors.New("proximity reading too short")
	ErrInvalidParams = errors.New("invalid session parameters")
)

// Rover is the motion and sensing collaborator. Turn and Move block until
// the motion is complete. Turn angles are degrees clockwise.
type Rover interface {
	Pose(ctx context.Context) (model.Pose, error)
	Proximity(ctx context.Context) ([]int, error)
	Turn(ctx context.Context, degrees float64) error
	Move(ctx context.Context, distance float64) error
	Stop(ctx context.Context) error
	SetLight(ctx context.Context, c model.Color) error
}

// Params describes the arena and the run.
type Params struct {
	Width, Height  int
	CellSize       float64
	Start          maze.Coord
	Destination    maze.Coord
	WallThreshold  float64
	CostPolicy     maze.CostPolicy
	CommandTimeout time.Duration
	// MaxSteps stops the run after that many moves. Zero means no limit.
	MaxSteps int
}

// Result is the final state of a session.
type Result struct {
	Outcome model.Outcome
	Steps   int
	Path    []maze.Coord
	Err     error
}

// Session holds the navigation state of one run. It is not safe for
// concurrent use; cancel the context passed to Step or Run instead.
type Session struct {
	id     string
	rover  Rover
	params Params
	grid   *maze.Grid

	current  maze.Coord
	previous *maze.Coord
	steps    int
	path     []maze.Coord
	outcome  model.Outcome
	err      error

	logger   *log.Logger
	observer func(model.StepTelemetry)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver registers fn to receive a telemetry record after every
// iteration and once when the session ends. fn runs on the session
// goroutine.
func WithObserver(fn func(model.StepTelemetry)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession builds the full lattice and places the rover on the start cell.
func NewSession(rover Rover, p Params, opts ...Option) (*Session, error) {
	grid, err := maze.NewGrid(p.Width, p.Height, p.CellSize, maze.WithCostPolicy(p.CostPolicy))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if !grid.InBounds(p.Start) {
		return nil, fmt.Errorf("%w: start %s outside %dx%d", ErrInvalidParams, p.Start, p.Width, p.Height)
	}
	if !grid.InBounds(p.Destination) {
		return nil, fmt.Errorf("%w: destination %s outside %dx%d", ErrInvalidParams, p.Destination, p.Width, p.Height)
	}
	if p.WallThreshold <= 0 {
		return nil, fmt.Errorf("%w: wall threshold must be positive", ErrInvalidParams)
	}
	if p.CommandTimeout <= 0 {
		p.CommandTimeout = DefaultCommandTimeout
	}

	s := &Session{
		id:      uuid.NewString(),
		rover:   rover,
		params:  p,
		grid:    grid,
		current: p.Start,
		path:    []maze.Coord{p.Start},
		outcome: model.Running,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	_ = grid.MarkVisited(p.Start)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Grid exposes the learned graph. It must only be read between steps.
func (s *Session) Grid() *maze.Grid { return s.grid }

// Current returns the cell the rover is in.
func (s *Session) Current() maze.Coord { return s.current }

// Previous returns the cell the rover came from, or nil before the first move.
func (s *Session) Previous() *maze.Coord { return s.previous }

// Outcome returns model.Running until the session ends.
func (s *Session) Outcome() model.Outcome { return s.outcome }

// Run steps until the session arrives, is cancelled or fails.
func (s *Session) Run(ctx context.Context) Result {
	s.logger.Printf("[session %s] start %s -> %s (%dx%d)", s.short(), s.params.Start, s.params.Destination, s.params.Width, s.params.Height)
	for {
		arrived, err := s.Step(ctx)
		if arrived || err != nil {
			break
		}
	}
	return s.Result()
}

// Result reports the current outcome.
func (s *Session) Result() Result {
	return Result{
		Outcome: s.outcome,
		Steps:   s.steps,
		Path:    append([]maze.Coord(nil), s.path...),
		Err:     s.err,
	}
}

// Step runs one iteration. It reports arrived once the rover is on the
// destination, and a non-nil error when the session ended any other way.
// Cancellation of ctx is honored before every command; a command already
// sent runs to completion.
func (s *Session) Step(ctx context.Context) (bool, error) {
	if s.outcome != model.Running {
		return s.outcome == model.Arrived, fmt.Errorf("%w: %s", ErrFinished, s.outcome)
	}
	if err := s.checkCancel(ctx); err != nil {
		return false, err
	}

	if s.current == s.params.Destination {
		s.halt(ctx, model.Green)
		s.finish(model.Arrived, nil)
		return true, nil
	}
	if s.params.MaxSteps > 0 && s.steps >= s.params.MaxSteps {
		s.halt(ctx, model.Red)
		return false, s.finish(model.Failed, fmt.Errorf("%w: %d moves", ErrStepLimit, s.steps))
	}

	var (
		pose     model.Pose
		readings []int
	)
	if err := s.command(ctx, "read pose", func(c context.Context) (err error) {
		pose, err = s.rover.Pose(c)
		return err
	}); err != nil {
		return false, err
	}
	if err := s.checkCancel(ctx); err != nil {
		return false, err
	}
	if err := s.command(ctx, "read proximity", func(c context.Context) (err error) {
		readings, err = s.rover.Proximity(c)
		return err
	}); err != nil {
		return false, err
	}
	walls, ok := maze.WallsFromReadings(readings, s.params.WallThreshold)
	if !ok {
		return false, s.finish(model.Failed, fmt.Errorf("%w: %d values", ErrShortReading, len(readings)))
	}

	orientation := maze.Orientation(pose.Heading)
	candidates := maze.Candidates(s.current, orientation)
	navigable := s.grid.NavigableNeighbors(candidates, walls, s.previous)
	if err := s.grid.Prune(s.current, navigable); err != nil {
		return false, s.finish(model.Failed, fmt.Errorf("prune %s: %w", s.current, err))
	}
	if _, err := s.grid.Flood(s.params.Destination); err != nil {
		return false, s.finish(model.Failed, fmt.Errorf("flood: %w", err))
	}

	rec := s.record(pose, orientation, walls)
	next, err := s.grid.NextCell(s.current)
	if err != nil {
		if errors.Is(err, maze.ErrCornered) {
			s.halt(ctx, model.Red)
		}
		return false, s.finish(model.Failed, fmt.Errorf("select from %s: %w", s.current, err))
	}
	step, err := s.grid.PlanStep(s.current, next, orientation)
	if err != nil {
		return false, s.finish(model.Failed, err)
	}
	rec.Next = &next
	rec.Turn = step.Turn

	if err := s.checkCancel(ctx); err != nil {
		return false, err
	}
	if err := s.command(ctx, "turn", func(c context.Context) error {
		return s.rover.Turn(c, float64(step.Turn))
	}); err != nil {
		return false, err
	}
	if err := s.checkCancel(ctx); err != nil {
		return false, err
	}
	if err := s.command(ctx, "move", func(c context.Context) error {
		return s.rover.Move(c, step.Distance)
	}); err != nil {
		return false, err
	}
	if err := s.checkCancel(ctx); err != nil {
		return false, err
	}

	if err := s.command(ctx, "read pose", func(c context.Context) (err error) {
		pose, err = s.rover.Pose(c)
		return err
	}); err != nil {
		return false, err
	}
	cell, err := s.grid.CellAt(pose.Point(), s.params.Start)
	if err != nil {
		return false, s.finish(model.Failed, err)
	}
	_ = s.grid.MarkVisited(cell)
	prev := s.current
	s.previous = &prev
	s.current = cell
	s.steps++
	s.path = append(s.path, cell)

	s.logger.Printf("[session %s] step %d: %s -> %s (turn %d, facing %s)", s.short(), s.steps, prev, cell, step.Turn, orientation)
	rec.Step = s.steps
	s.emit(rec)
	return false, nil
}

// command runs fn on a context that outlives session cancellation but is
// bounded by the command timeout.
func (s *Session) command(ctx context.Context, what string, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.params.CommandTimeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		err = fmt.Errorf("%s: %w", what, err)
		// A fail-safe that fired while the command ran wins.
		if ctx.Err() != nil {
			return s.finish(model.Cancelled, errors.Join(ctx.Err(), err))
		}
		return s.finish(model.Failed, err)
	}
	return nil
}

func (s *Session) checkCancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return s.finish(model.Cancelled, fmt.Errorf("session cancelled: %w", err))
	}
	return nil
}

// halt stops the wheels and sets the light. Failures are logged only.
func (s *Session) halt(ctx context.Context, c model.Color) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.params.CommandTimeout)
	defer cancel()
	if err := s.rover.Stop(cctx); err != nil {
		s.logger.Printf("[session %s] stop failed: %v", s.short(), err)
	}
	if err := s.rover.SetLight(cctx, c); err != nil {
		s.logger.Printf("[session %s] set light failed: %v", s.short(), err)
	}
}

func (s *Session) finish(o model.Outcome, err error) error {
	s.outcome = o
	s.err = err
	if err != nil {
		s.logger.Printf("[session %s] %s after %d moves: %v", s.short(), o, s.steps, err)
	} else {
		s.logger.Printf("[session %s] %s at %s after %d moves", s.short(), o, s.current, s.steps)
	}
	s.logger.Printf("[session %s] costs:\n%s", s.short(), s.grid.Render(maze.AttrCost))
	s.logger.Printf("[session %s] known walls:\n%s", s.short(), s.grid)

	rec := model.StepTelemetry{
		SessionID: s.id,
		Step:      s.steps,
		Time:      time.Now(),
		Cell:      s.current,
		Neighbors: s.grid.Neighbors(s.current),
		Costs:     s.grid.CostTable(),
		Outcome:   o.String(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.emit(rec)
	return err
}

func (s *Session) record(pose model.Pose, orientation maze.Direction, walls maze.Walls) model.StepTelemetry {
	return model.StepTelemetry{
		SessionID:   s.id,
		Time:        time.Now(),
		Cell:        s.current,
		Heading:     pose.Heading,
		Orientation: orientation.String(),
		Walls:       walls,
		Neighbors:   s.grid.Neighbors(s.current),
		Costs:       s.grid.CostTable(),
		Outcome:     model.Running.String(),
	}
}

func (s *Session) emit(rec model.StepTelemetry) {
	if s.observer != nil {
		s.observer(rec)
	}
}

func (s *Session) short() string {
	if len(s.id) > 8 {
		return s.id[:8]
	}
	return s.id
}
