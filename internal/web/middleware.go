package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"resephub/internal/visitor"
	"resephub/pkg/logging"
)

// AccessLog writes one zerolog line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logging.Info()
		if status >= 500 {
			ev = logging.Error()
		}
		ev.Str("component", "http").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("visitor", visitor.ID(c)).
			Msg("request")
	}
}
