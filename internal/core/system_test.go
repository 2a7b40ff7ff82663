package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MazeRover/internal/maze"
	"MazeRover/internal/model"
)

func simConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := &model.Config{
		Arena: model.ArenaConfig{
			Width:       3,
			Height:      3,
			Destination: maze.Coord{X: 2, Y: 2},
		},
		Monitor: model.MonitorConfig{DBPath: filepath.Join(t.TempDir(), "runs.db")},
		Delivery: model.DeliveryConfig{
			Destination:   model.Point{X: 0, Y: 100},
			MaxIterations: 50,
		},
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func startSimSystem(t *testing.T, cfg *model.Config) *System {
	t.Helper()
	s, err := NewSystemFromConfig(cfg, WithSimulation())
	require.NoError(t, err)
	require.NoError(t, s.StartAll())
	t.Cleanup(s.StopAll)
	return s
}

func TestRunMazeSimulated(t *testing.T) {
	s := startSimSystem(t, simConfig(t))

	res, err := s.RunMaze(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, model.Arrived, res.Outcome)
	assert.Equal(t, maze.Coord{X: 2, Y: 2}, res.Path[len(res.Path)-1])
	assert.Equal(t, model.Green, s.Sim.Light())

	sessions, err := s.Runs.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	steps, err := s.Runs.Steps(sessions[0].ID)
	require.NoError(t, err)
	assert.Len(t, steps, res.Steps+1)
	assert.Equal(t, "arrived", steps[len(steps)-1].Outcome)
}

func TestRunMazeWithWalls(t *testing.T) {
	cfg := simConfig(t)
	cfg.Simulation.Walls = []model.Wall{
		{A: maze.Coord{X: 0, Y: 1}, B: maze.Coord{X: 0, Y: 2}},
		{A: maze.Coord{X: 1, Y: 1}, B: maze.Coord{X: 1, Y: 2}},
	}
	s := startSimSystem(t, cfg)

	res, err := s.RunMaze(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, model.Arrived, res.Outcome)
	assert.Equal(t, maze.Coord{X: 2, Y: 2}, s.Sim.Cell())
}

func TestRunDeliverySimulated(t *testing.T) {
	cfg := simConfig(t)
	cfg.Arena.Width, cfg.Arena.Height = 5, 5
	cfg.Arena.Start = maze.Coord{X: 2, Y: 0}
	cfg.Arena.Destination = maze.Coord{X: 2, Y: 4}
	s := startSimSystem(t, cfg)

	res, err := s.RunDelivery(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, model.Arrived, res.Outcome)
	assert.Equal(t, maze.Coord{X: 2, Y: 2}, s.Sim.Cell())
}

func TestBumpCancelsSession(t *testing.T) {
	s := startSimSystem(t, simConfig(t))

	ctx, release := s.FailSafe.Guard(context.Background())
	defer release()
	s.Sim.Bump(true, false)

	select {
	case <-ctx.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("bump did not cancel the session")
	}
	require.Eventually(t, func() bool {
		return s.Sim.Light() == model.Red
	}, 3*time.Second, 20*time.Millisecond)
	e, ok := s.FailSafe.Triggered()
	require.True(t, ok)
	assert.Equal(t, model.EventBump, e.Kind)
}

func TestRunBeforeStart(t *testing.T) {
	s, err := NewSystemFromConfig(simConfig(t), WithSimulation())
	require.NoError(t, err)
	defer s.StopAll()

	_, err = s.RunMaze(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = s.RunDelivery(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}
