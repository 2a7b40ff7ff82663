package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MazeRover/internal/model"
)

type recordingHalter struct {
	mu      sync.Mutex
	stops   int
	lights  []model.Color
	stopErr error
}

func (h *recordingHalter) Stop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
	return h.stopErr
}

func (h *recordingHalter) SetLight(_ context.Context, c model.Color) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lights = append(h.lights, c)
	return nil
}

func (h *recordingHalter) snapshot() (int, []model.Color) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops, append([]model.Color(nil), h.lights...)
}

func TestFailSafeTriggers(t *testing.T) {
	tests := []struct {
		name  string
		event model.Event
	}{
		{"left bumper", model.Event{Kind: model.EventBump, Left: true}},
		{"right bumper", model.Event{Kind: model.EventBump, Right: true}},
		{"button", model.Event{Kind: model.EventButton, Left: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHalter{}
			events := make(chan model.Event, 1)
			f := NewFailSafe(h, events, time.Second, nil)
			f.Start()
			defer f.Stop()

			ctx, release := f.Guard(context.Background())
			defer release()
			events <- tt.event

			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("session context not cancelled")
			}
			require.Eventually(t, func() bool {
				_, lights := h.snapshot()
				return len(lights) == 1
			}, 2*time.Second, 10*time.Millisecond)

			stops, lights := h.snapshot()
			assert.Equal(t, 1, stops)
			assert.Equal(t, []model.Color{model.Red}, lights)
			got, ok := f.Triggered()
			assert.True(t, ok)
			assert.Equal(t, tt.event, got)
		})
	}
}

func TestFailSafeIgnoresReleases(t *testing.T) {
	h := &recordingHalter{}
	events := make(chan model.Event)
	f := NewFailSafe(h, events, time.Second, nil)
	f.Start()

	ctx, release := f.Guard(context.Background())
	defer release()
	events <- model.Event{Kind: model.EventBump}
	f.Stop()

	assert.NoError(t, ctx.Err())
	stops, _ := h.snapshot()
	assert.Equal(t, 0, stops)
	_, ok := f.Triggered()
	assert.False(t, ok)
}

func TestFailSafeHaltsWithoutGuard(t *testing.T) {
	h := &recordingHalter{stopErr: errors.New("link down")}
	events := make(chan model.Event)
	f := NewFailSafe(h, events, time.Second, nil)
	f.Start()

	events <- model.Event{Kind: model.EventButton, Right: true}
	close(events)
	f.Stop()

	stops, lights := h.snapshot()
	assert.Equal(t, 1, stops)
	assert.Equal(t, []model.Color{model.Red}, lights)
}

func TestFailSafeGuardResets(t *testing.T) {
	h := &recordingHalter{}
	events := make(chan model.Event)
	f := NewFailSafe(h, events, time.Second, nil)
	f.Start()
	defer f.Stop()

	ctx, release := f.Guard(context.Background())
	events <- model.Event{Kind: model.EventBump, Left: true}
	<-ctx.Done()
	release()

	ctx, release = f.Guard(context.Background())
	defer release()
	_, ok := f.Triggered()
	assert.False(t, ok)
	assert.NoError(t, ctx.Err())
}
