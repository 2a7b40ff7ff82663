package device

import (
	"context"
	"errors"
	"io"
	"strings"

	"MazeRover/internal/model"
	"MazeRover/internal/parser"
)

// Serve answers the rover line protocol on dev until ctx is done or the
// peer closes the link, acting as the firmware end. Events are forwarded as
// EVT lines while Serve runs.
func (s *SimRover) Serve(ctx context.Context, dev Device) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.forwardEvents(ctx, dev)

	s.logger.Printf("[sim] serving rover protocol")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := dev.ReadLine(readPoll)
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				continue
			}
			if errors.Is(err, io.EOF) {
				s.logger.Printf("[sim] link closed")
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		reply := s.handle(ctx, line)
		s.logger.Printf("[sim] %s -> %s", line, reply)
		if err := dev.WriteLine(reply); err != nil {
			return err
		}
	}
}

func (s *SimRover) forwardEvents(ctx context.Context, dev Device) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			if err := dev.WriteLine(parser.EncodeEvent(ev)); err != nil {
				s.logger.Printf("[sim] event write error: %v", err)
				return
			}
		}
	}
}

func (s *SimRover) handle(ctx context.Context, line string) string {
	cmd, err := parser.ParseCommand(line)
	if err != nil {
		name := strings.ToUpper(strings.SplitN(line, ",", 2)[0])
		return parser.EncodeError(name, err.Error())
	}

	switch cmd.Name {
	case parser.CmdPose:
		p, err := s.Pose(ctx)
		if err != nil {
			return parser.EncodeError(cmd.Name, err.Error())
		}
		return parser.EncodePose(p)
	case parser.CmdIR:
		r, err := s.Proximity(ctx)
		if err != nil {
			return parser.EncodeError(cmd.Name, err.Error())
		}
		return parser.EncodeProximity(r)
	case parser.CmdTurn:
		err = s.Turn(ctx, cmd.Args[0])
	case parser.CmdMove:
		err = s.Move(ctx, cmd.Args[0])
	case parser.CmdDrive:
		err = s.Drive(ctx, cmd.Args[0], cmd.Args[1])
	case parser.CmdResetNav:
		err = s.ResetNavigation(ctx)
	case parser.CmdStop:
		err = s.Stop(ctx)
	case parser.CmdLight:
		err = s.SetLight(ctx, model.Color{
			R: channel(cmd.Args[0]),
			G: channel(cmd.Args[1]),
			B: channel(cmd.Args[2]),
		})
	}
	if err != nil {
		return parser.EncodeError(cmd.Name, err.Error())
	}
	return parser.EncodeAck(cmd.Name)
}

func channel(v float64) uint8 {
	return uint8(min(max(v, 0), 255))
}
