package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sqsbackoff/internal/config"
	"sqsbackoff/internal/logger"
	"sqsbackoff/pkg/health"
	"sqsbackoff/pkg/middleware"
	"sqsbackoff/pkg/ratelimit"
	"sqsbackoff/pkg/tracing"
)

// NewRouter wires middleware, /health, /metrics and the API routes.
func NewRouter(cfg *config.Config, log logger.Logger, handler *Handler, checks *health.CheckerRegistry, serviceName string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(serviceName))
	}

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))

	if cfg.Server.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             cfg.Server.RateLimit.RPS,
			Burst:           cfg.Server.RateLimit.Burst,
			CleanupInterval: time.Duration(cfg.Server.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(cfg.Server.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		log.InfowCtx(context.Background(), "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	router.GET("/health", func(c *gin.Context) {
		h := checks.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router)

	return router
}
