package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mfgadmin/backend/internal/infrastructure/telemetry"
)

// Profiling attaches route and method pprof labels to the request so
// Pyroscope can split CPU time per endpoint. Health and metrics scrapes are
// left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !enabled || route == "" || route == "/health" || route == "/metrics" {
			c.Next()
			return
		}

		telemetry.WithProfilingLabels(c.Request.Context(), telemetry.HTTPRequestLabels(route, c.Request.Method), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
