package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"MazeRover/internal/model"
)

// Rover link wire format (host -> rover):
//
//	POSE | IR | TURN,<deg> | MOVE,<dist> | DRIVE,<left>,<right> | RESETNAV | STOP | LED,<r>,<g>,<b>
//
// Rover -> host:
//
//	POSE,<x>,<y>,<heading> | IR,<v0>,...,<v6> | ACK,<cmd> | ERR,<cmd>,<message>
//	EVT,BUMP,<left>,<right> | EVT,BUTTON,<first>,<second>
//
// TURN angles are degrees clockwise. Event flags are 0 or 1.
const (
	CmdPose     = "POSE"
	CmdIR       = "IR"
	CmdTurn     = "TURN"
	CmdMove     = "MOVE"
	CmdDrive    = "DRIVE"
	CmdResetNav = "RESETNAV"
	CmdStop     = "STOP"
	CmdLight    = "LED"

	ReplyAck   = "ACK"
	ReplyError = "ERR"
	EventTag   = "EVT"
)

// ErrUnknownCommand is returned for a command name outside the protocol.
var ErrUnknownCommand = errors.New("unknown command")

var commandArity = map[string]int{
	CmdPose:     0,
	CmdIR:       0,
	CmdTurn:     1,
	CmdMove:     1,
	CmdDrive:    2,
	CmdResetNav: 0,
	CmdStop:     0,
	CmdLight:    3,
}

// EncodeCommand formats a command line.
func EncodeCommand(c model.Command) string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		parts = append(parts, strconv.FormatFloat(a, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

// ParseCommand parses a command line and checks its argument count.
func ParseCommand(line string) (model.Command, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	name := strings.ToUpper(fields[0])
	arity, ok := commandArity[name]
	if !ok {
		return model.Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	if len(fields)-1 != arity {
		return model.Command{}, fmt.Errorf("%s expects %d arguments, got %d", name, arity, len(fields)-1)
	}

	args := make([]float64, 0, arity)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return model.Command{}, fmt.Errorf("%s: invalid argument %d", name, i+1)
		}
		args = append(args, v)
	}
	return model.Command{Name: name, Args: args}, nil
}

// ParseReply splits a response line into its kind and fields.
func ParseReply(line string) (model.Reply, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.Reply{}, errors.New("empty reply")
	}
	fields := strings.Split(line, ",")
	return model.Reply{Kind: strings.ToUpper(fields[0]), Fields: fields[1:]}, nil
}

// IsEvent reports whether line is an unsolicited event.
func IsEvent(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), EventTag+",")
}

// EncodePose formats a POSE reply.
func EncodePose(p model.Pose) string {
	return fmt.Sprintf("%s,%.3f,%.3f,%.3f", CmdPose, p.X, p.Y, p.Heading)
}

// DecodePose reads a POSE reply.
func DecodePose(r model.Reply) (model.Pose, error) {
	if r.Kind != CmdPose {
		return model.Pose{}, fmt.Errorf("expected %s reply, got %s", CmdPose, r.Kind)
	}
	if len(r.Fields) != 3 {
		return model.Pose{}, fmt.Errorf("expected 3 pose fields, got %d", len(r.Fields))
	}
	x, err := strconv.ParseFloat(r.Fields[0], 64)
	if err != nil {
		return model.Pose{}, errors.New("invalid x")
	}
	y, err := strconv.ParseFloat(r.Fields[1], 64)
	if err != nil {
		return model.Pose{}, errors.New("invalid y")
	}
	heading, err := strconv.ParseFloat(r.Fields[2], 64)
	if err != nil {
		return model.Pose{}, errors.New("invalid heading")
	}
	return model.Pose{X: x, Y: y, Heading: heading}, nil
}

// EncodeProximity formats an IR reply.
func EncodeProximity(readings []int) string {
	parts := make([]string, 0, len(readings)+1)
	parts = append(parts, CmdIR)
	for _, r := range readings {
		parts = append(parts, strconv.Itoa(r))
	}
	return strings.Join(parts, ",")
}

// DecodeProximity reads an IR reply.
func DecodeProximity(r model.Reply) ([]int, error) {
	if r.Kind != CmdIR {
		return nil, fmt.Errorf("expected %s reply, got %s", CmdIR, r.Kind)
	}
	readings := make([]int, 0, len(r.Fields))
	for i, f := range r.Fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid proximity reading %d", i)
		}
		readings = append(readings, v)
	}
	return readings, nil
}

// EncodeAck acknowledges a completed command.
func EncodeAck(name string) string {
	return ReplyAck + "," + name
}

// EncodeError reports a failed command.
func EncodeError(name, msg string) string {
	return ReplyError + "," + name + "," + strings.ReplaceAll(msg, ",", ";")
}

// ReplyCommand returns the command a reply answers, or "" when it cannot
// be told.
func ReplyCommand(r model.Reply) string {
	switch r.Kind {
	case CmdPose, CmdIR:
		return r.Kind
	case ReplyAck, ReplyError:
		if len(r.Fields) > 0 {
			return strings.ToUpper(r.Fields[0])
		}
	}
	return ""
}

// EncodeEvent formats an EVT line.
func EncodeEvent(e model.Event) string {
	return fmt.Sprintf("%s,%s,%s,%s", EventTag, e.Kind, flag(e.Left), flag(e.Right))
}

// ParseEvent reads an EVT line.
func ParseEvent(line string) (model.Event, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 || fields[0] != EventTag {
		return model.Event{}, fmt.Errorf("malformed event %q", line)
	}
	kind := model.EventKind(strings.ToUpper(fields[1]))
	if kind != model.EventBump && kind != model.EventButton {
		return model.Event{}, fmt.Errorf("unknown event kind %q", fields[1])
	}
	left, err := parseFlag(fields[2])
	if err != nil {
		return model.Event{}, errors.New("invalid left flag")
	}
	right, err := parseFlag(fields[3])
	if err != nil {
		return model.Event{}, errors.New("invalid right flag")
	}
	return model.Event{Kind: kind, Left: left, Right: right}, nil
}
