package app

// registerRoutes sets up all HTTP handlers for the monitor.
func (a *App) registerRoutes() {
	api := a.Engine.Group("/api/v1")
	{
		api.GET("/sessions", a.handleSessions)
		api.GET("/sessions/:id", a.handleSession)
		api.GET("/sessions/:id/latest", a.handleLatest)
	}
	a.Engine.GET("/ws", a.handleWS)
}
