// Package parser converts MazeRover wire formats to structured types and vice-versa.
//
// Two families of lines are handled here. The rover link is a newline CSV
// protocol spoken with the rover firmware (see rover.go). Step telemetry is
// published to monitoring clients either as CSV or JSON through Parser.
package parser

import (
	"fmt"

	"MazeRover/internal/model"
)

// Parser encodes and decodes step telemetry frames.
type Parser interface {
	EncodeTelemetry(t model.StepTelemetry) (string, error)
	DecodeTelemetry(line string) (model.StepTelemetry, error)
}

// New returns the parser registered for format ("csv" or "json").
func New(format string) (Parser, error) {
	switch format {
	case "csv":
		return NewCSVParser(), nil
	case "json", "":
		return NewJSONParser(), nil
	default:
		return nil, fmt.Errorf("unknown wire format %q", format)
	}
}
