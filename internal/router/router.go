package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepdeck/session-engine/internal/config"
	"github.com/prepdeck/session-engine/internal/handler"
	"github.com/prepdeck/session-engine/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt *handler.AttemptHandler
	Results *handler.ResultsHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		attempts := api.Group("/attempts")
		{
			attempts.POST("", handlers.Attempt.Start)
			attempts.GET("/:session_id", handlers.Attempt.Get)
			attempts.DELETE("/:session_id", handlers.Attempt.Leave)

			attempts.POST("/:session_id/move", handlers.Attempt.Move)
			attempts.POST("/:session_id/next", handlers.Attempt.Next)
			attempts.POST("/:session_id/previous", handlers.Attempt.Previous)
			attempts.POST("/:session_id/skip", handlers.Attempt.Skip)
			attempts.POST("/:session_id/section", handlers.Attempt.SwitchSection)

			attempts.POST("/:session_id/answer", handlers.Attempt.Answer)
			attempts.DELETE("/:session_id/answer/:question_id", handlers.Attempt.Clear)
			attempts.POST("/:session_id/mark/:question_id", handlers.Attempt.Mark)
			attempts.DELETE("/:session_id/mark/:question_id", handlers.Attempt.Unmark)

			attempts.POST("/:session_id/submit", handlers.Attempt.Submit)
			attempts.GET("/:session_id/live", handlers.WS.LiveStream)
		}

		results := api.Group("/results")
		{
			results.GET("", handlers.Results.List)
			results.GET("/:session_id", handlers.Results.Get)
		}
	}

	return router
}
