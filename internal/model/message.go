// Package model defines shared message structures for MazeRover.
package model

import (
	"time"

	"github.com/paulmach/orb"

	"MazeRover/internal/maze"
)

// Pose is an odometry sample: position relative to the start cell and
// heading in degrees counter-clockwise from +x.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Point returns the position part of the pose.
func (p Pose) Point() orb.Point { return orb.Point{p.X, p.Y} }

// Color is an RGB value for the rover's light ring.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Off   = Color{}
)

// EventKind names an unsolicited rover event.
type EventKind string

const (
	EventBump   EventKind = "BUMP"
	EventButton EventKind = "BUTTON"
)

// Event is a bumper or button report. Left and Right carry the two bumpers
// or the two user buttons.
type Event struct {
	Kind  EventKind `json:"kind"`
	Left  bool      `json:"left"`
	Right bool      `json:"right"`
}

// Triggered reports whether either side is pressed.
func (e Event) Triggered() bool { return e.Left || e.Right }

// Command is a request sent to the rover firmware.
type Command struct {
	Name string
	Args []float64
}

// Reply is a response line from the rover firmware, split into its kind and
// remaining fields.
type Reply struct {
	Kind   string
	Fields []string
}

// Outcome is how a session ended.
type Outcome int

const (
	Running Outcome = iota
	Arrived
	Cancelled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Arrived:
		return "arrived"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "running"
	}
}

// StepTelemetry is the record published after every session iteration.
type StepTelemetry struct {
	SessionID   string       `json:"session_id"`
	Step        int          `json:"step"`
	Time        time.Time    `json:"time"`
	Cell        maze.Coord   `json:"cell"`
	Heading     float64      `json:"heading"`
	Orientation string       `json:"orientation"`
	Walls       [3]bool      `json:"walls"`
	Neighbors   []maze.Coord `json:"neighbors"`
	Next        *maze.Coord  `json:"next,omitempty"`
	Turn        int          `json:"turn"`
	Costs       [][]int      `json:"costs,omitempty"`
	Outcome     string       `json:"outcome"`
	Error       string       `json:"error,omitempty"`
}

// SessionSummary describes one stored session.
type SessionSummary struct {
	ID      string     `json:"id"`
	Steps   int        `json:"steps"`
	Started time.Time  `json:"started"`
	Updated time.Time  `json:"updated"`
	Last    maze.Coord `json:"last"`
	Outcome string     `json:"outcome"`
}
