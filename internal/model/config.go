// Package model defines shared configuration structures used to initialize MazeRover.
// It includes the arena, the rover link, the monitor and the simulated arena.
package model

import (
	"errors"
	"fmt"

	"MazeRover/internal/maze"
)

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Arena      ArenaConfig      `yaml:"arena"`
	Rover      RoverConfig      `yaml:"rover"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Simulation SimulationConfig `yaml:"simulation"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
}

// ArenaConfig describes the grid the maze session explores.
type ArenaConfig struct {
	Width         int        `yaml:"width"`          // number of columns
	Height        int        `yaml:"height"`         // number of rows
	CellSize      float64    `yaml:"cell_size"`      // edge length of one cell, odometry units
	Start         maze.Coord `yaml:"start"`          // cell the rover starts in
	Destination   maze.Coord `yaml:"destination"`    // goal cell
	WallThreshold float64    `yaml:"wall_threshold"` // distance at or under which a wall is sensed
	CostPolicy    string     `yaml:"cost_policy"`    // "reset" or "stale"
	MaxSteps      int        `yaml:"max_steps"`      // 0 means no limit
}

// RoverConfig defines the serial link to the rover firmware.
type RoverConfig struct {
	ID               string `yaml:"id"`
	Device           string `yaml:"device"`
	Baud             int    `yaml:"baud"`
	CommandTimeoutMs int    `yaml:"command_timeout_ms"`
}

// MonitorConfig defines the telemetry web server and run log.
type MonitorConfig struct {
	Addr       string `yaml:"addr"`        // e.g. ":10000", empty disables the server
	DBPath     string `yaml:"db_path"`     // bbolt file for step telemetry
	WireFormat string `yaml:"wire_format"` // websocket frame format (csv/json)
}

// SimulationConfig describes the arena used by the simulated rover.
type SimulationConfig struct {
	Walls    []Wall  `yaml:"walls"`
	Link     string  `yaml:"link"`      // PTY path the rover side opens
	PeerLink string  `yaml:"peer_link"` // PTY path the simulator serves on
	TimeStep float64 `yaml:"time_step"` // seconds advanced per pose sample while driving
}

// Wall blocks the edge between two adjacent cells.
type Wall struct {
	A maze.Coord `yaml:"a" json:"a"`
	B maze.Coord `yaml:"b" json:"b"`
}

// DeliveryConfig defines the point-to-point delivery run.
type DeliveryConfig struct {
	Destination      Point   `yaml:"destination"`
	ArrivalThreshold float64 `yaml:"arrival_threshold"`
	Speed            float64 `yaml:"speed"`
	MaxIterations    int     `yaml:"max_iterations"`
}

// Point is a world position in odometry units.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Defaults used when a field is left empty.
const (
	DefaultCellSize       = 50.0
	DefaultWallThreshold  = 80.0
	DefaultBaud           = 9600
	DefaultCommandTimeout = 10000
	DefaultWireFormat     = "json"
	DefaultDBPath         = "tmp/runs.db"
	DefaultArrival        = 5.0
	DefaultDeliverySpeed  = 10.0
	DefaultTimeStep       = 1.0
)

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Arena.CellSize == 0 {
		c.Arena.CellSize = DefaultCellSize
	}
	if c.Arena.WallThreshold == 0 {
		c.Arena.WallThreshold = DefaultWallThreshold
	}
	if c.Arena.CostPolicy == "" {
		c.Arena.CostPolicy = maze.ResetUnreached.String()
	}
	if c.Rover.ID == "" {
		c.Rover.ID = "rover"
	}
	if c.Rover.Baud == 0 {
		c.Rover.Baud = DefaultBaud
	}
	if c.Rover.CommandTimeoutMs == 0 {
		c.Rover.CommandTimeoutMs = DefaultCommandTimeout
	}
	if c.Monitor.WireFormat == "" {
		c.Monitor.WireFormat = DefaultWireFormat
	}
	if c.Monitor.DBPath == "" {
		c.Monitor.DBPath = DefaultDBPath
	}
	if c.Delivery.ArrivalThreshold == 0 {
		c.Delivery.ArrivalThreshold = DefaultArrival
	}
	if c.Delivery.Speed == 0 {
		c.Delivery.Speed = DefaultDeliverySpeed
	}
	if c.Simulation.TimeStep == 0 {
		c.Simulation.TimeStep = DefaultTimeStep
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	a := c.Arena
	if a.Width <= 0 || a.Height <= 0 {
		errs = append(errs, fmt.Errorf("arena: width and height must be positive, got %dx%d", a.Width, a.Height))
	}
	if a.CellSize <= 0 {
		errs = append(errs, errors.New("arena: cell_size must be positive"))
	}
	if a.WallThreshold <= 0 {
		errs = append(errs, errors.New("arena: wall_threshold must be positive"))
	}
	inArena := func(p maze.Coord) bool {
		return p.X >= 0 && p.X < a.Width && p.Y >= 0 && p.Y < a.Height
	}
	if !inArena(a.Start) {
		errs = append(errs, fmt.Errorf("arena: start %s outside the arena", a.Start))
	}
	if !inArena(a.Destination) {
		errs = append(errs, fmt.Errorf("arena: destination %s outside the arena", a.Destination))
	}
	if _, err := maze.ParseCostPolicy(a.CostPolicy); err != nil {
		errs = append(errs, fmt.Errorf("arena: %w", err))
	}
	if a.MaxSteps < 0 {
		errs = append(errs, errors.New("arena: max_steps must not be negative"))
	}
	if c.Rover.Baud <= 0 {
		errs = append(errs, errors.New("rover: baud must be positive"))
	}
	if c.Rover.CommandTimeoutMs <= 0 {
		errs = append(errs, errors.New("rover: command_timeout_ms must be positive"))
	}
	if f := c.Monitor.WireFormat; f != "csv" && f != "json" {
		errs = append(errs, fmt.Errorf("monitor: unknown wire_format %q", f))
	}
	for i, w := range c.Simulation.Walls {
		dx, dy := w.A.X-w.B.X, w.A.Y-w.B.Y
		if dx*dx+dy*dy != 1 {
			errs = append(errs, fmt.Errorf("simulation: wall %d joins non-adjacent cells %s and %s", i, w.A, w.B))
		}
	}
	if c.Delivery.ArrivalThreshold <= 0 {
		errs = append(errs, errors.New("delivery: arrival_threshold must be positive"))
	}
	return errors.Join(errs...)
}
