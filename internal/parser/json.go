package parser

import (
	"encoding/json"

	"MazeRover/internal/model"
)

// JSONParser implements Parser using JSON serialization.
type JSONParser struct{}

// NewJSONParser creates a new JSON parser.
func NewJSONParser() *JSONParser { return &JSONParser{} }

// EncodeTelemetry encodes a StepTelemetry into a JSON string.
func (p *JSONParser) EncodeTelemetry(t model.StepTelemetry) (string, error) {
	b, err := json.Marshal(t)
	return string(b), err
}

// DecodeTelemetry decodes a JSON string into a StepTelemetry.
func (p *JSONParser) DecodeTelemetry(s string) (model.StepTelemetry, error) {
	var t model.StepTelemetry
	err := json.Unmarshal([]byte(s), &t)
	return t, err
}
