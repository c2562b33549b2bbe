// Package middleware provides the Gin HTTP middleware for the inference
// gateway. Everything here is registered in internal/api before any route
// handlers so every request is covered.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexusml/nexus/internal/telemetry"
)

// Metrics records request count and latency for every request. The path
// label uses the matched route template (c.FullPath()), not the raw URL, so
// unmatched requests (404/405) are collapsed into the literal "<no-route>"
// and cannot inflate label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
