package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/flexledger/internal/metrics"
	"github.com/guttosm/flexledger/internal/middleware"
)

// apiTimeout bounds read requests. POST /sync detaches its run from the request context,
// so a slow upstream does not abort a half-fetched sync.
const apiTimeout = 10 * time.Second

// NewRouter creates a Gin engine with routes configured.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler).
//   - Mounts probes (/healthz, /readyz), Prometheus metrics (/metrics) and Swagger docs
//     (/swagger/*any) outside the rate limit.
//   - Configures API v1 routes (/api/v1) behind the rate limiter and a request timeout.
func NewRouter(handler *Handler, health *HealthHandler) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
	)

	// ─── Probes / Metrics / Swagger ───────────────
	if health != nil {
		health.Register(router)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1", middleware.RateLimiter(), requestTimeout(apiTimeout))
	{
		v1.GET("/positions", handler.GetPositions)
		v1.GET("/journal", handler.GetJournal)
		v1.GET("/ledger", handler.GetLedger)
		v1.POST("/sync", handler.PostSync)
	}

	return router
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
