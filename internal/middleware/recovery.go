package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/flexledger/internal/logger"
	"github.com/guttosm/flexledger/internal/metrics"
)

// RecoveryMiddleware returns a Gin middleware that recovers from handler panics.
//
// Behavior:
//   - Logs the panic value, stack, path and request id, and counts it in flexledger_http_panics_total.
//   - Answers 500 with the standard error body, unless the handler already started
//     writing; then the chain is only aborted.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			metrics.Panics.Inc()

			rid, _ := c.Get(RequestIDKey)
			logger.L().Error().
				Str("request_id", toString(rid)).
				Str("path", c.Request.URL.Path).
				Str("panic", fmt.Sprintf("%v", r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			AbortWithError(c, http.StatusInternalServerError, "Internal server error", fmt.Errorf("%v", r))
		}()

		c.Next()
	}
}
