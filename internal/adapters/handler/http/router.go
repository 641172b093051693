package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/handler/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDependencies struct {
	ProgressHandler *ProgressHandler
	SyncHandler     *SyncHandler
	APITokenHash    string
	Store           Pinger
	Redis           *redis.Client
	RateLimit       middleware.RateLimitConfig
	StartTime       time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit))
	}

	router.GET("/health", func(c *gin.Context) {
		storeStatus := "connected"
		if deps.Store != nil {
			if err := deps.Store.Ping(c.Request.Context()); err != nil {
				storeStatus = "unreachable"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(c.Request.Context()).Err() != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := 200
		if storeStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status": "ok",
			"store":  storeStatus,
			"redis":  redisStatus,
			"uptime": time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")

	deps.ProgressHandler.RegisterRoutes(apiV1)

	if deps.SyncHandler != nil {
		protected := apiV1.Group("")
		protected.Use(middleware.APITokenMiddleware(deps.APITokenHash))
		{
			deps.SyncHandler.RegisterRoutes(protected)
		}
	}

	return router
}
