package main

import (
	"github.com/gin-gonic/gin"
	"github.com/seojun-park/mockterview/backend/internal/middleware"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the webhook route
	webhookLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "mockterview"})
	})

	// Recording webhook (public, rate limited)
	r.POST("/webhook/recording", webhookLimiter.Middleware(), svc.webhookHandler.HandleRecordingEvent)

	// API routes
	api := r.Group("/api")
	{
		protected := api.Group("")
		protected.Use(middleware.JWTAuth())
		{
			// Attempts
			protected.POST("/attempts", svc.attemptHandler.Create)
			protected.GET("/attempts/:root/:number", svc.attemptHandler.Get)

			// SSE notification stream
			protected.GET("/events", svc.sseHandler.Stream)
		}
	}
}
