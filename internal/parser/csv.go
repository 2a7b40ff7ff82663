package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MazeRover/internal/maze"
	"MazeRover/internal/model"
)

// CSVParser implements Parser using comma-separated values.
//
// Telemetry CSV:
//
//	SESSION_ID,STEP,UNIX_MS,X,Y,HEADING,ORIENT,WALL_L,WALL_C,WALL_R,NEXT_X,NEXT_Y,TURN,OUTCOME
//
// NEXT_X and NEXT_Y are empty when no next cell was chosen. Neighbor lists
// and cost tables are only carried by the JSON format.
type CSVParser struct{}

const telemetryFields = 14

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser { return &CSVParser{} }

// EncodeTelemetry converts a StepTelemetry into a CSV line.
func (p *CSVParser) EncodeTelemetry(t model.StepTelemetry) (string, error) {
	if strings.Contains(t.SessionID, ",") {
		return "", errors.New("session id must not contain commas")
	}
	nextX, nextY := "", ""
	if t.Next != nil {
		nextX, nextY = strconv.Itoa(t.Next.X), strconv.Itoa(t.Next.Y)
	}
	line := fmt.Sprintf("%s,%d,%d,%d,%d,%.2f,%s,%s,%s,%s,%s,%s,%d,%s",
		t.SessionID, t.Step, t.Time.UnixMilli(), t.Cell.X, t.Cell.Y, t.Heading, t.Orientation,
		flag(t.Walls[0]), flag(t.Walls[1]), flag(t.Walls[2]),
		nextX, nextY, t.Turn, t.Outcome)
	return line, nil
}

// DecodeTelemetry parses a CSV telemetry line.
func (p *CSVParser) DecodeTelemetry(line string) (model.StepTelemetry, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != telemetryFields {
		return model.StepTelemetry{}, fmt.Errorf("expected %d fields, got %d", telemetryFields, len(fields))
	}

	step, err := strconv.Atoi(fields[1])
	if err != nil {
		return model.StepTelemetry{}, errors.New("invalid step")
	}
	ms, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return model.StepTelemetry{}, errors.New("invalid time")
	}
	x, err := strconv.Atoi(fields[3])
	if err != nil {
		return model.StepTelemetry{}, errors.New("invalid x")
	}
	y, err := strconv.Atoi(fields[4])
	if err != nil {
		return model.StepTelemetry{}, errors.New("invalid y")
	}
	heading, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return model.StepTelemetry{}, errors.New("invalid heading")
	}

	var walls [3]bool
	for i := range walls {
		w, err := parseFlag(fields[7+i])
		if err != nil {
			return model.StepTelemetry{}, fmt.Errorf("invalid wall %d", i)
		}
		walls[i] = w
	}

	var next *maze.Coord
	if fields[10] != "" || fields[11] != "" {
		nx, errX := strconv.Atoi(fields[10])
		ny, errY := strconv.Atoi(fields[11])
		if errX != nil || errY != nil {
			return model.StepTelemetry{}, errors.New("invalid next cell")
		}
		next = &maze.Coord{X: nx, Y: ny}
	}

	turn, err := strconv.Atoi(fields[12])
	if err != nil {
		return model.StepTelemetry{}, errors.New("invalid turn")
	}

	return model.StepTelemetry{
		SessionID:   fields[0],
		Step:        step,
		Time:        time.UnixMilli(ms).UTC(),
		Cell:        maze.Coord{X: x, Y: y},
		Heading:     heading,
		Orientation: fields[6],
		Walls:       walls,
		Next:        next,
		Turn:        turn,
		Outcome:     fields[13],
	}, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid flag %q", s)
	}
}
