// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/recurring/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                   *gin.Engine
	healthController         *controller.HealthController
	billPatternController    *controller.BillPatternController
	recommendationController *controller.RecommendationController
	classificationController *controller.ClassificationController
	labelController          *controller.LabelController
	rateLimiter              *middleware.RateLimiter
	authMiddleware           *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
// A nil rate limiter disables rate limiting.
func NewRouter(
	healthController *controller.HealthController,
	billPatternController *controller.BillPatternController,
	recommendationController *controller.RecommendationController,
	classificationController *controller.ClassificationController,
	labelController *controller.LabelController,
	rateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:         healthController,
		billPatternController:    billPatternController,
		recommendationController: recommendationController,
		classificationController: classificationController,
		labelController:          labelController,
		rateLimiter:              rateLimiter,
		authMiddleware:           authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	// API v1 group
	v1 := r.engine.Group("/api/v1")
	v1.Use(r.authMiddleware.Authenticate())

	// Bill pattern routes
	patterns := v1.Group("/bill-patterns")
	{
		patterns.POST("/detect", r.limit("detect"), r.billPatternController.Detect)
		patterns.POST("/cleanup-duplicates", r.billPatternController.CleanupDuplicates)
		patterns.POST("", r.billPatternController.Create)
		patterns.GET("", r.billPatternController.List)
		patterns.GET("/:id", r.billPatternController.Get)
		patterns.PATCH("/:id", r.billPatternController.Update)
		patterns.DELETE("/:id", r.billPatternController.Delete)
		patterns.POST("/:id/occurrences/sync", r.billPatternController.SyncOccurrences)
		patterns.GET("/:id/occurrences", r.billPatternController.ListOccurrences)
		patterns.POST("/:id/links", r.billPatternController.Link)
		patterns.DELETE("/:id/links/:transaction_id", r.billPatternController.Unlink)
		patterns.POST("/:id/label", r.limit("label"), r.labelController.SuggestForPattern)
	}

	// Recommendation routes
	recommendations := v1.Group("/recommendations")
	{
		recommendations.GET("", r.recommendationController.List)
		recommendations.POST("/accept", r.recommendationController.Accept)
	}

	// Transaction classification routes
	transactions := v1.Group("/transactions")
	{
		transactions.POST("/classifications/batch", r.classificationController.BatchUpdate)
		transactions.POST("/classifications/remaining", r.classificationController.ClassifyRemaining)
		transactions.POST("/classifications/propagate", r.classificationController.Propagate)
		transactions.GET("/:id/classification", r.classificationController.Get)
		transactions.POST("/:id/label", r.limit("label"), r.labelController.SuggestForTransaction)
	}
}

// limit returns the rate limiting handler of a scope, or a pass-through when rate limiting is disabled.
func (r *Router) limit(scope string) gin.HandlerFunc {
	if r.rateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.rateLimiter.Middleware(scope)
}
