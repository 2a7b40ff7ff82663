// Package core contains the runtime orchestration layer for MazeRover.
// It wires the rover link, the fail-safe, the run log and the monitor
// together and runs maze and delivery sessions against them.
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"MazeRover/internal/app"
	"MazeRover/internal/config"
	"MazeRover/internal/delivery"
	"MazeRover/internal/device"
	"MazeRover/internal/maze"
	"MazeRover/internal/model"
	"MazeRover/internal/nav"
	"MazeRover/internal/store"
)

var ErrNotStarted = errors.New("system not started")

// System manages the lifecycle of the rover link, fail-safe and monitor.
type System struct {
	cfgPath string
	cfg     *model.Config

	Runs     *store.RunLog
	Monitor  *app.App
	Rover    *device.RoverDevice
	FailSafe *FailSafe
	// Sim is the in-process rover when the system runs simulated.
	Sim *device.SimRover

	simulate  bool
	simCancel context.CancelFunc
	simDone   chan struct{}

	started   bool
	startLock sync.Mutex
	runLock   sync.Mutex
}

// Option configures a System.
type Option func(*System)

// WithSimulation replaces the serial rover with a simulated one built from
// the simulation section of the config.
func WithSimulation() Option {
	return func(s *System) { s.simulate = true }
}

// NewSystem loads the configuration at cfgPath and creates a System.
func NewSystem(cfgPath string, opts ...Option) (*System, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	s, err := NewSystemFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s.cfgPath = cfgPath
	return s, nil
}

// NewSystemFromConfig opens the run log and builds the monitor. The rover
// link is opened by StartAll.
func NewSystemFromConfig(cfg *model.Config, opts ...Option) (*System, error) {
	runs, err := store.Open(cfg.Monitor.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	monitor, err := app.NewApp(runs, cfg.Monitor.WireFormat)
	if err != nil {
		_ = runs.Close()
		return nil, err
	}
	s := &System{cfg: cfg, Runs: runs, Monitor: monitor}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the loaded configuration.
func (s *System) Config() *model.Config { return s.cfg }

// StartAll opens the rover link, arms the fail-safe and starts the monitor
// in the background.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}

	if s.simulate {
		s.startSim()
	} else {
		rover, err := device.OpenSerialRover(s.cfg.Rover.ID, s.cfg.Rover.Device, s.cfg.Rover.Baud,
			device.WithRoverLogger(log.Default()))
		if err != nil {
			return fmt.Errorf("open rover %s: %w", s.cfg.Rover.Device, err)
		}
		s.Rover = rover
	}
	log.Printf("[system] rover %s connected", s.Rover.ID)

	s.FailSafe = NewFailSafe(s.Rover, s.Rover.Events(), s.commandTimeout(), log.Default())
	s.FailSafe.Start()

	go func() {
		if err := s.Monitor.Start(s.cfg.Monitor.Addr); err != nil {
			log.Printf("[system] monitor stopped: %v", err)
		}
	}()

	s.started = true
	return nil
}

// startSim runs a SimRover as firmware on one end of an in-memory pipe and
// the rover client on the other.
func (s *System) startSim() {
	a := s.cfg.Arena
	s.Sim = device.NewSimRover(a.Width, a.Height, a.CellSize, a.Start,
		device.WithWalls(s.cfg.Simulation.Walls),
		device.WithTimeStep(s.cfg.Simulation.TimeStep),
	)
	roverEnd, firmwareEnd := device.NewPipe()

	ctx, cancel := context.WithCancel(context.Background())
	s.simCancel = cancel
	s.simDone = make(chan struct{})
	go func() {
		defer close(s.simDone)
		defer firmwareEnd.Close()
		if err := s.Sim.Serve(ctx, firmwareEnd); err != nil {
			log.Printf("[system] simulator stopped: %v", err)
		}
	}()

	s.Rover = device.NewRoverDevice(s.cfg.Rover.ID, roverEnd, device.WithRoverLogger(log.Default()))
	s.Rover.Start()
}

// RunMaze runs one maze session from the configured start cell. Every step
// record goes to the monitor. A bump or button press cancels the session.
func (s *System) RunMaze(ctx context.Context) (nav.Result, error) {
	if !s.isStarted() {
		return nav.Result{}, ErrNotStarted
	}
	s.runLock.Lock()
	defer s.runLock.Unlock()

	a := s.cfg.Arena
	policy, err := maze.ParseCostPolicy(a.CostPolicy)
	if err != nil {
		return nav.Result{}, err
	}
	params := nav.Params{
		Width:          a.Width,
		Height:         a.Height,
		CellSize:       a.CellSize,
		Start:          a.Start,
		Destination:    a.Destination,
		WallThreshold:  a.WallThreshold,
		CostPolicy:     policy,
		CommandTimeout: s.commandTimeout(),
		MaxSteps:       a.MaxSteps,
	}

	ctx, release := s.FailSafe.Guard(ctx)
	defer release()
	session, err := nav.NewSession(s.Rover, params,
		nav.WithLogger(log.Default()),
		nav.WithObserver(s.Monitor.Publish),
	)
	if err != nil {
		return nav.Result{}, err
	}

	res := session.Run(ctx)
	if e, ok := s.FailSafe.Triggered(); ok {
		log.Printf("[system] session %s stopped by %s", session.ID(), e.Kind)
	}
	return res, nil
}

// RunDelivery drives the rover to the configured delivery point.
func (s *System) RunDelivery(ctx context.Context) (delivery.Result, error) {
	if !s.isStarted() {
		return delivery.Result{}, ErrNotStarted
	}
	s.runLock.Lock()
	defer s.runLock.Unlock()

	d := s.cfg.Delivery
	ctx, release := s.FailSafe.Guard(ctx)
	defer release()
	c := delivery.NewController(s.Rover, delivery.Params{
		Destination:      orb.Point{d.Destination.X, d.Destination.Y},
		ArrivalThreshold: d.ArrivalThreshold,
		Speed:            d.Speed,
		CommandTimeout:   s.commandTimeout(),
		MaxIterations:    d.MaxIterations,
	}, delivery.WithLogger(log.Default()))
	return c.Run(ctx), nil
}

// StopAll stops the monitor, fail-safe and rover link and closes the run
// log.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		s.Monitor.Stop()
		if err := s.Rover.Close(); err != nil {
			log.Printf("[system] rover close: %v", err)
		}
		s.FailSafe.Stop()
		if s.simCancel != nil {
			s.simCancel()
			<-s.simDone
		}
		s.started = false
	}
	if err := s.Runs.Close(); err != nil {
		log.Printf("[system] run log close: %v", err)
	}
}

func (s *System) isStarted() bool {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	return s.started
}

func (s *System) commandTimeout() time.Duration {
	return time.Duration(s.cfg.Rover.CommandTimeoutMs) * time.Millisecond
}
