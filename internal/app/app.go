// Package app implements the monitor: a REST API over the session run log
// and a websocket feed of live step telemetry.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"MazeRover/internal/model"
	"MazeRover/internal/parser"
	"MazeRover/internal/store"
)

type App struct {
	Runs   *store.RunLog
	Hub    *Hub
	Engine *gin.Engine
	Server *http.Server

	frames parser.Parser
}

// NewApp builds the monitor over runs. Websocket frames use wireFormat
// ("csv" or "json").
func NewApp(runs *store.RunLog, wireFormat string) (*App, error) {
	if runs == nil {
		return nil, errors.New("[monitor] nil run log")
	}
	frames, err := parser.New(wireFormat)
	if err != nil {
		return nil, fmt.Errorf("[monitor] %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	a := &App{
		Runs:   runs,
		Hub:    NewHub(),
		Engine: engine,
		frames: frames,
	}
	a.registerRoutes()
	return a, nil
}

// Publish stores a telemetry record and pushes it to websocket clients.
// It matches the nav.WithObserver callback.
func (a *App) Publish(t model.StepTelemetry) {
	if err := a.Runs.Append(t); err != nil {
		log.Printf("[monitor] failed to store step %d of %s: %v", t.Step, t.SessionID, err)
	}
	frame, err := a.frames.EncodeTelemetry(t)
	if err != nil {
		log.Printf("[monitor] failed to encode step %d: %v", t.Step, err)
		return
	}
	a.Hub.Broadcast(frame)
}

// Start launches the web server and blocks until stopped.
func (a *App) Start(addr string) error {
	if addr == "" {
		log.Println("[monitor] server not started (empty address)")
		return nil
	}

	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	a.Server = &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("[monitor] listening at http://%s", addr)
	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("[monitor] HTTP server error: %w", err)
	}
	return nil
}

// Stop shuts the server down and drops websocket clients. The run log is
// left open for its owner to close.
func (a *App) Stop() {
	if a == nil {
		return
	}
	if a.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			log.Printf("[monitor] HTTP server shutdown error: %v", err)
		} else {
			log.Println("[monitor] web server stopped cleanly")
		}
	}
	a.Hub.Close()
}
