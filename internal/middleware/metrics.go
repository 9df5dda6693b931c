package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency per route template and tenant academic type.
// Unrouted paths share one label so scanners probing verification codes cannot grow the series set.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, path := range skip {
		skipped[path] = true
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if skipped[path] {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}
		var academicType string
		if tenant, ok := TenantFromContext(c); ok {
			academicType = string(tenant.AcademicType)
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), academicType, time.Since(start))
	}
}
