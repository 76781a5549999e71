package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interview-scheduler-api/internal/service"
)

// Metrics records request count and latency per route. The route template
// (not the raw URL) is used as the label to keep cardinality bounded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
