package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/config"
	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/service"
)

const serviceName = "student-forum-api"

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. health may be nil.
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, health HealthChecker) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.CORS))

	// Handlers
	authHandler := NewAuthHandler(services, log)
	articleHandler := NewArticleHandler(services, log)
	articleVotes := NewVoteHandler(models.TargetArticle, services, log)
	commentVotes := NewVoteHandler(models.TargetComment, services, log)

	router.GET("/health", healthCheck(health))
	router.GET("/metrics", metricsHandler(services))

	// API v1
	v1 := router.Group("/v1")
	{
		v1.POST("/register", authHandler.Register)
		v1.POST("/login", authHandler.Login)

		authed := v1.Group("")
		authed.Use(authMiddleware(services.Auth))
		{
			authed.POST("/logout", authHandler.Logout)
			authed.GET("/me", authHandler.Me)

			articles := authed.Group("/articles")
			{
				articles.GET("", articleHandler.List)
				articles.POST("", articleHandler.Create)
				articles.GET("/:id", articleHandler.Get)
				articles.PUT("/:id", articleHandler.Replace)
				articles.PATCH("/:id", articleHandler.Patch)
				articles.DELETE("/:id", articleHandler.Delete)
				articles.GET("/:id/comments", articleHandler.ListComments)
				articles.POST("/:id/comments", articleHandler.CreateComment)
				articles.POST("/:id/vote/:action", articleVotes.Cast)
			}

			authed.POST("/comments/:id/vote/:action", commentVotes.Cast)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code, database := "healthy", http.StatusOK, "up"
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code, database = "unhealthy", http.StatusServiceUnavailable, "down"
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  database,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   serviceName,
		})
	}
}

// metricsHandler returns row counts
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := services.Stats.Counts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"database":  counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
