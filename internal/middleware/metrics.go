package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vanity-bot/internal/service"
)

// unmatchedRoute labels requests no route matched, so arbitrary URLs never
// become label values.
const unmatchedRoute = "unmatched"

// Metrics records request latency per route template, e.g.
// /v1/communities/:id/ledger rather than one series per community. Routes
// listed in skip, such as the scrape endpoint, are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
