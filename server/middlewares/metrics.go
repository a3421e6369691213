package middlewares

import (
	"time"

	"github.com/Luismorlan/localsocial/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records every request under its route pattern, so that ids in the
// path do not explode the label space.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
