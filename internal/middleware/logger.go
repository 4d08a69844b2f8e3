package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
)

// RequestLogger is a Gin middleware that logs method, path, status code,
// request latency, and request ID (if available), and counts the request in
// flexledger_http_requests_total by matched route.
//
// Behavior:
//   - Logs at info level, warn for 4xx and error for 5xx responses.
//   - Includes the first error attached with c.Error, if any.
//   - Unmatched paths are counted under the route "unmatched".
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	request_id=123e4567-e89b-12d3-a456-426614174000 method=GET path=/api/v1/positions status=200 latency_ms=3
func RequestLogger() gin.HandlerFunc {
	log := logger.With("http")
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		// Process request
		c.Next()

		// Compute latency and get status
		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()

		// Get request_id if available
		rid, _ := c.Get(RequestIDKey)

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors[0].Err)
		}

		// Structured JSON log
		ev.Str("request_id", toString(rid)).
			Str("method", method).
			Str("path", path).
			Str("route", route).
			Int("status", status).
			Int64("latency_ms", latency.Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
