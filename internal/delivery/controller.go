// Package delivery drives the rover straight to a point in odometry space,
// stepping around obstacles by following them with a side sensor.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/paulmach/orb"

	"MazeRover/internal/maze"
	"MazeRover/internal/model"
)

const (
	DefaultArrivalThreshold = 5.0
	DefaultSpeed            = 10.0
	DefaultCommandTimeout   = 10 * time.Second

	// ObstacleDistance is how close an obstacle must be before the rover
	// turns to follow it.
	ObstacleDistance = 20.0
	// ClearDistance is the side distance past which the obstacle is left.
	ClearDistance = 100.0
	// FollowTurn is the small correction applied while too close.
	FollowTurn = 3.0
	// ClearanceMove is driven once the obstacle is cleared.
	ClearanceMove = 30.0
)

var ErrIterationLimit = errors.New("iteration limit reached")

// Drive is the rover surface the controller needs. Turn angles are degrees
// clockwise.
type Drive interface {
	Pose(ctx context.Context) (model.Pose, error)
	Proximity(ctx context.Context) ([]int, error)
	Turn(ctx context.Context, degrees float64) error
	Move(ctx context.Context, distance float64) error
	Drive(ctx context.Context, left, right float64) error
	ResetNavigation(ctx context.Context) error
	SetLight(ctx context.Context, c model.Color) error
}

// Params configures a delivery run. Zero values take the defaults.
type Params struct {
	Destination      orb.Point
	ArrivalThreshold float64
	Speed            float64
	CommandTimeout   time.Duration
	// MaxIterations stops the run after that many loop passes. Zero means
	// no limit.
	MaxIterations int
}

// Result is how a delivery run ended.
type Result struct {
	Outcome    model.Outcome
	Iterations int
	Err        error
}

// Controller holds the state of one delivery run.
type Controller struct {
	drive  Drive
	params Params
	logger *log.Logger

	realigned bool
	following bool
	sensor    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns a controller for one run to p.Destination.
func NewController(d Drive, p Params, opts ...Option) *Controller {
	if p.ArrivalThreshold <= 0 {
		p.ArrivalThreshold = DefaultArrivalThreshold
	}
	if p.Speed == 0 {
		p.Speed = DefaultSpeed
	}
	if p.CommandTimeout <= 0 {
		p.CommandTimeout = DefaultCommandTimeout
	}
	c := &Controller{drive: d, params: p, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run resets odometry and loops until the rover is within the arrival
// threshold, ctx is cancelled or a command fails.
func (c *Controller) Run(ctx context.Context) Result {
	c.logger.Printf("[delivery] heading for (%.1f, %.1f)", c.params.Destination.X(), c.params.Destination.Y())
	if err := c.do(ctx, "reset navigation", func(cc context.Context) error {
		return c.drive.ResetNavigation(cc)
	}); err != nil {
		return c.result(ctx, 0, err)
	}

	for i := 0; ; i++ {
		if c.params.MaxIterations > 0 && i >= c.params.MaxIterations {
			c.stopWheels(ctx)
			return c.result(ctx, i, fmt.Errorf("%w: %d", ErrIterationLimit, i))
		}

		pose, err := c.pose(ctx)
		if err != nil {
			return c.result(ctx, i, err)
		}
		if Arrived(pose.Point(), c.params.Destination, c.params.ArrivalThreshold) {
			err := c.do(ctx, "stop", func(cc context.Context) error { return c.drive.Drive(cc, 0, 0) })
			if err == nil {
				err = c.do(ctx, "light", func(cc context.Context) error { return c.drive.SetLight(cc, model.Green) })
			}
			c.logger.Printf("[delivery] arrived at (%.1f, %.1f) after %d iterations", pose.X, pose.Y, i+1)
			return c.result(ctx, i+1, err)
		}

		if !c.realigned {
			if err := c.realign(ctx); err != nil {
				return c.result(ctx, i+1, err)
			}
		}
		if c.following {
			if err := c.follow(ctx); err != nil {
				return c.result(ctx, i+1, err)
			}
		}
		if !c.following {
			if err := c.approach(ctx); err != nil {
				return c.result(ctx, i+1, err)
			}
		}
	}
}

// realign stops and turns to face the destination.
func (c *Controller) realign(ctx context.Context) error {
	pose, err := c.pose(ctx)
	if err != nil {
		return err
	}
	if err := c.do(ctx, "stop", func(cc context.Context) error { return c.drive.Drive(cc, 0, 0) }); err != nil {
		return err
	}
	angle := AngleToDestination(pose.Point(), c.params.Destination)
	correction := CorrectionAngle(pose.Heading)
	if err := c.turn(ctx, float64(correction)); err != nil {
		return err
	}
	if err := c.turn(ctx, float64(angle)); err != nil {
		return err
	}
	c.realigned = true
	return nil
}

// approach drives forward, or turns parallel to a close obstacle and starts
// following it with the sensor on its side.
func (c *Controller) approach(ctx context.Context) error {
	readings, err := c.proximity(ctx)
	if err != nil {
		return err
	}
	distance, angle := MinProximity(readings)
	if distance >= ObstacleDistance {
		return c.do(ctx, "drive", func(cc context.Context) error {
			return c.drive.Drive(cc, c.params.Speed, c.params.Speed)
		})
	}

	if err := c.do(ctx, "stop", func(cc context.Context) error { return c.drive.Drive(cc, 0, 0) }); err != nil {
		return err
	}
	var turn float64
	if angle > 0 {
		turn = -(90 - angle)
		c.sensor = maze.SensorRight
	} else {
		turn = 90 + angle
		c.sensor = maze.SensorLeft
	}
	c.logger.Printf("[delivery] obstacle at %.1f (sensor angle %.2f), turning %.2f", distance, angle, turn)
	if err := c.turn(ctx, turn); err != nil {
		return err
	}
	c.following = true
	return nil
}

// follow keeps the obstacle on the chosen side until it falls away.
func (c *Controller) follow(ctx context.Context) error {
	readings, err := c.proximity(ctx)
	if err != nil {
		return err
	}
	if c.sensor >= len(readings) {
		return fmt.Errorf("follow: sensor %d missing from %d readings", c.sensor, len(readings))
	}
	d := maze.ProximityDistance(readings[c.sensor])

	switch {
	case d < ObstacleDistance:
		if c.sensor == maze.SensorRight {
			return c.turn(ctx, -FollowTurn)
		}
		return c.turn(ctx, FollowTurn)
	case d < ClearDistance:
		return c.do(ctx, "drive", func(cc context.Context) error {
			return c.drive.Drive(cc, c.params.Speed, c.params.Speed)
		})
	default:
		if err := c.do(ctx, "stop", func(cc context.Context) error { return c.drive.Drive(cc, 0, 0) }); err != nil {
			return err
		}
		if err := c.do(ctx, "move", func(cc context.Context) error { return c.drive.Move(cc, ClearanceMove) }); err != nil {
			return err
		}
		c.logger.Printf("[delivery] obstacle cleared")
		c.realigned = false
		c.following = false
		return nil
	}
}

func (c *Controller) pose(ctx context.Context) (pose model.Pose, err error) {
	err = c.do(ctx, "read pose", func(cc context.Context) error {
		pose, err = c.drive.Pose(cc)
		return err
	})
	return pose, err
}

func (c *Controller) proximity(ctx context.Context) (readings []int, err error) {
	err = c.do(ctx, "read proximity", func(cc context.Context) error {
		readings, err = c.drive.Proximity(cc)
		return err
	})
	return readings, err
}

func (c *Controller) turn(ctx context.Context, degrees float64) error {
	return c.do(ctx, "turn", func(cc context.Context) error { return c.drive.Turn(cc, degrees) })
}

// do refuses to start a command after cancellation and otherwise runs fn
// with a per-command timeout that ignores cancellation.
func (c *Controller) do(ctx context.Context, what string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.params.CommandTimeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (c *Controller) stopWheels(ctx context.Context) {
	if err := c.do(ctx, "stop", func(cc context.Context) error { return c.drive.Drive(cc, 0, 0) }); err != nil {
		c.logger.Printf("[delivery] stop failed: %v", err)
	}
}

func (c *Controller) result(ctx context.Context, iterations int, err error) Result {
	r := Result{Outcome: model.Arrived, Iterations: iterations, Err: err}
	switch {
	case ctx.Err() != nil:
		r.Outcome = model.Cancelled
		if err == nil {
			r.Err = ctx.Err()
		}
	case err != nil:
		r.Outcome = model.Failed
	}
	if r.Err != nil {
		c.logger.Printf("[delivery] %s after %d iterations: %v", r.Outcome, iterations, r.Err)
	}
	return r
}
