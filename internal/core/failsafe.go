package core

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"MazeRover/internal/model"
)

// Halter is the part of the rover the fail-safe drives.
type Halter interface {
	Stop(ctx context.Context) error
	SetLight(ctx context.Context, c model.Color) error
}

// FailSafe watches rover events. Any bump or button press cancels the
// guarded session context, then stops the wheels and turns the light red.
type FailSafe struct {
	rover   Halter
	events  <-chan model.Event
	timeout time.Duration
	logger  *log.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	triggered *model.Event

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFailSafe returns a fail-safe over events. timeout bounds each halt
// command.
func NewFailSafe(rover Halter, events <-chan model.Event, timeout time.Duration, logger *log.Logger) *FailSafe {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &FailSafe{
		rover:   rover,
		events:  events,
		timeout: timeout,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

// Start consumes events until Stop is called or the event channel closes.
func (f *FailSafe) Start() {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-f.stop:
				return
			case e, ok := <-f.events:
				if !ok {
					f.logger.Println("[failsafe] event stream closed")
					return
				}
				f.handle(e)
			}
		}
	}()
}

// Guard derives the session context that the next trigger cancels. The
// returned release func disarms the guard and must be called when the
// session ends.
func (f *FailSafe) Guard(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	f.mu.Lock()
	f.cancel = cancel
	f.triggered = nil
	f.mu.Unlock()
	return ctx, func() {
		f.mu.Lock()
		f.cancel = nil
		f.mu.Unlock()
		cancel()
	}
}

// Triggered returns the event that last fired the fail-safe since the
// current guard was armed.
func (f *FailSafe) Triggered() (model.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggered == nil {
		return model.Event{}, false
	}
	return *f.triggered, true
}

func (f *FailSafe) handle(e model.Event) {
	if !e.Triggered() {
		return
	}
	f.mu.Lock()
	f.triggered = &e
	cancel := f.cancel
	f.mu.Unlock()

	f.logger.Printf("[failsafe] %s left=%t right=%t, halting", e.Kind, e.Left, e.Right)
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), f.timeout)
	defer done()
	if err := f.rover.Stop(ctx); err != nil {
		f.logger.Printf("[failsafe] stop failed: %v", err)
	}
	if err := f.rover.SetLight(ctx, model.Red); err != nil {
		f.logger.Printf("[failsafe] set light failed: %v", err)
	}
}

// Stop ends the event loop and waits for it.
func (f *FailSafe) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
	f.wg.Wait()
}
