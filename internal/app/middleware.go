package app

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs each request in the monitor's log format.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[monitor] %s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
