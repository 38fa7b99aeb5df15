package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request count and latency by route pattern. A nil
// metrics set makes it a pass-through.
func HTTPMetrics(m *telemetry.StudioMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
