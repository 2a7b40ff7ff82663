package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"MazeRover/internal/model"
	"MazeRover/internal/parser"
)

var (
	// ErrRover wraps an ERR reply from the firmware.
	ErrRover = errors.New("rover error")
	// ErrLinkClosed is returned once the reader has stopped.
	ErrLinkClosed = errors.New("rover link closed")
	// ErrUnexpectedReply is returned for a reply of the wrong kind.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

const (
	readPoll = 200 * time.Millisecond
	// lateReplyWindow is the shortest time a reply owed to an abandoned
	// request is waited for before the command is trusted again.
	lateReplyWindow = time.Second
)

// RoverDevice drives the rover firmware over a line Device. Replies are
// routed to the waiting request by command name, so STOP can be sent while a
// MOVE is still running. A reply that turns up after its request gave up
// is dropped. Events are delivered on Events().
type RoverDevice struct {
	ID  string
	dev Device

	logger *log.Logger

	mu      sync.Mutex
	waiting map[string]chan model.Reply
	locks   map[string]*sync.Mutex

	// stale holds, per command, the expiry of each reply still owed to an
	// abandoned request.
	stale      map[string][]time.Time
	lateWindow time.Duration

	events    chan model.Event
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// RoverOption configures a RoverDevice.
type RoverOption func(*RoverDevice)

// WithRoverLogger sets the logger used for link diagnostics.
func WithRoverLogger(l *log.Logger) RoverOption {
	return func(r *RoverDevice) { r.logger = l }
}

// WithEventBuffer sets the capacity of the events channel.
func WithEventBuffer(n int) RoverOption {
	return func(r *RoverDevice) { r.events = make(chan model.Event, n) }
}

// NewRoverDevice wraps dev. Call Start before issuing requests.
func NewRoverDevice(id string, dev Device, opts ...RoverOption) *RoverDevice {
	r := &RoverDevice{
		ID:      id,
		dev:     dev,
		logger:  log.New(io.Discard, "", 0),
		waiting: make(map[string]chan model.Reply),
		locks:   make(map[string]*sync.Mutex),
		stale:   make(map[string][]time.Time),

		lateWindow: lateReplyWindow,
		events:  make(chan model.Event, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenSerialRover opens a serial port and starts a RoverDevice on it.
func OpenSerialRover(id, path string, baud int, opts ...RoverOption) (*RoverDevice, error) {
	sd, err := NewSerialDevice(path, baud)
	if err != nil {
		return nil, err
	}
	r := NewRoverDevice(id, sd, opts...)
	r.Start()
	return r, nil
}

// Start launches the reader goroutine.
func (r *RoverDevice) Start() {
	r.startOnce.Do(func() { go r.readLoop() })
}

// Events returns bump and button reports. The channel is closed when the
// link goes down.
func (r *RoverDevice) Events() <-chan model.Event { return r.events }

// Close stops the reader and closes the underlying device.
func (r *RoverDevice) Close() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.stop)
		err = r.dev.Close()
	})
	return err
}

func (r *RoverDevice) readLoop() {
	defer close(r.done)
	defer close(r.events)

	for {
		line, err := r.dev.ReadLine(readPoll)
		if err != nil {
			select {
			case <-r.stop:
				return
			default:
			}
			if errors.Is(err, ErrReadTimeout) {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, ErrNotOpen) {
				r.logger.Printf("[rover %s] link closed", r.ID)
				return
			}
			r.logger.Printf("[rover %s] read error: %v", r.ID, err)
			time.Sleep(readPoll)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if parser.IsEvent(line) {
			ev, err := parser.ParseEvent(line)
			if err != nil {
				r.logger.Printf("[rover %s] bad event %q: %v", r.ID, line, err)
				continue
			}
			select {
			case r.events <- ev:
			default:
				r.logger.Printf("[rover %s] event dropped: %s", r.ID, line)
			}
			continue
		}
		r.dispatch(line)
	}
}

func (r *RoverDevice) dispatch(line string) {
	reply, err := parser.ParseReply(line)
	if err != nil {
		return
	}
	name := parser.ReplyCommand(reply)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takeStale(name, time.Now()) {
		r.logger.Printf("[rover %s] late reply dropped: %s", r.ID, line)
		return
	}
	ch := r.waiting[name]
	if ch == nil {
		r.logger.Printf("[rover %s] unsolicited reply: %s", r.ID, line)
		return
	}
	select {
	case ch <- reply:
	default:
		r.logger.Printf("[rover %s] duplicate reply: %s", r.ID, line)
	}
}

// abandon unregisters a request that stopped waiting after waited. Unless
// its reply was already delivered, the next reply for the command belongs
// to it and is dropped, provided it arrives within max(waited, lateWindow).
func (r *RoverDevice) abandon(name string, ch chan model.Reply, waited time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiting, name)
	if len(ch) > 0 {
		return
	}
	r.stale[name] = append(r.stale[name], time.Now().Add(max(waited, r.lateWindow)))
}

// takeStale reports whether a reply for name arriving at now is owed to an
// abandoned request. Expired debts are forgotten. r.mu must be held.
func (r *RoverDevice) takeStale(name string, now time.Time) bool {
	owed := r.stale[name]
	for len(owed) > 0 && now.After(owed[0]) {
		owed = owed[1:]
	}
	if len(owed) == 0 {
		delete(r.stale, name)
		return false
	}
	if len(owed) == 1 {
		delete(r.stale, name)
	} else {
		r.stale[name] = owed[1:]
	}
	return true
}

func (r *RoverDevice) commandLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// request sends cmd and waits for its reply. Requests for the same command
// are serialized.
func (r *RoverDevice) request(ctx context.Context, cmd model.Command) (model.Reply, error) {
	l := r.commandLock(cmd.Name)
	l.Lock()
	defer l.Unlock()

	select {
	case <-r.done:
		return model.Reply{}, ErrLinkClosed
	default:
	}

	ch := make(chan model.Reply, 1)
	r.mu.Lock()
	r.waiting[cmd.Name] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.waiting, cmd.Name)
		r.mu.Unlock()
	}()

	if err := r.dev.WriteLine(parser.EncodeCommand(cmd)); err != nil {
		return model.Reply{}, fmt.Errorf("%s: write: %w", cmd.Name, err)
	}
	sent := time.Now()

	select {
	case <-ctx.Done():
		r.abandon(cmd.Name, ch, time.Since(sent))
		return model.Reply{}, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	case <-r.done:
		return model.Reply{}, fmt.Errorf("%s: %w", cmd.Name, ErrLinkClosed)
	case reply := <-ch:
		if reply.Kind == parser.ReplyError {
			return reply, fmt.Errorf("%s: %w: %s", cmd.Name, ErrRover, strings.Join(reply.Fields[1:], ","))
		}
		return reply, nil
	}
}

func (r *RoverDevice) ack(ctx context.Context, cmd model.Command) error {
	reply, err := r.request(ctx, cmd)
	if err != nil {
		return err
	}
	if reply.Kind != parser.ReplyAck {
		return fmt.Errorf("%s: %w %s", cmd.Name, ErrUnexpectedReply, reply.Kind)
	}
	return nil
}

// Pose reads the odometry pose.
func (r *RoverDevice) Pose(ctx context.Context) (model.Pose, error) {
	reply, err := r.request(ctx, model.Command{Name: parser.CmdPose})
	if err != nil {
		return model.Pose{}, err
	}
	return parser.DecodePose(reply)
}

// Proximity reads the IR proximity array.
func (r *RoverDevice) Proximity(ctx context.Context) ([]int, error) {
	reply, err := r.request(ctx, model.Command{Name: parser.CmdIR})
	if err != nil {
		return nil, err
	}
	return parser.DecodeProximity(reply)
}

// Turn rotates in place by degrees, positive clockwise.
func (r *RoverDevice) Turn(ctx context.Context, degrees float64) error {
	return r.ack(ctx, model.Command{Name: parser.CmdTurn, Args: []float64{degrees}})
}

// Move drives straight for distance.
func (r *RoverDevice) Move(ctx context.Context, distance float64) error {
	return r.ack(ctx, model.Command{Name: parser.CmdMove, Args: []float64{distance}})
}

// Drive sets the wheel speeds and returns immediately.
func (r *RoverDevice) Drive(ctx context.Context, left, right float64) error {
	return r.ack(ctx, model.Command{Name: parser.CmdDrive, Args: []float64{left, right}})
}

// ResetNavigation zeroes the odometry.
func (r *RoverDevice) ResetNavigation(ctx context.Context) error {
	return r.ack(ctx, model.Command{Name: parser.CmdResetNav})
}

// Stop halts both wheels.
func (r *RoverDevice) Stop(ctx context.Context) error {
	return r.ack(ctx, model.Command{Name: parser.CmdStop})
}

// SetLight sets the light ring color.
func (r *RoverDevice) SetLight(ctx context.Context, c model.Color) error {
	return r.ack(ctx, model.Command{
		Name: parser.CmdLight,
		Args: []float64{float64(c.R), float64(c.G), float64(c.B)},
	})
}
