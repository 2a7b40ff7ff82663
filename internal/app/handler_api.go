package app

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"MazeRover/internal/model"
	"MazeRover/internal/store"
)

// handleSessions lists stored sessions, most recent first.
func (a *App) handleSessions(c *gin.Context) {
	sessions, err := a.Runs.Sessions()
	if err != nil {
		log.Printf("[monitor] list sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sessions"})
		return
	}
	if sessions == nil {
		sessions = []model.SessionSummary{}
	}
	c.JSON(http.StatusOK, sessions)
}

// handleSession returns every step of one session.
func (a *App) handleSession(c *gin.Context) {
	steps, err := a.Runs.Steps(c.Param("id"))
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

// handleLatest returns the last step of one session.
func (a *App) handleLatest(c *gin.Context) {
	latest, err := a.Runs.Latest(c.Param("id"))
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

// handleWS upgrades to a websocket that receives every published step.
func (a *App) handleWS(c *gin.Context) {
	a.Hub.Serve(c.Writer, c.Request)
}

func (a *App) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	log.Printf("[monitor] read session: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
}
