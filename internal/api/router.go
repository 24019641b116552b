// Package api serves stored batch runs and on-demand allocation over HTTP.
package api

import (
	"intraday-welfare/internal/api/handlers"
	"intraday-welfare/internal/api/middleware"
	"intraday-welfare/internal/logger"

	"github.com/gin-gonic/gin"
)

// Deps are the services behind the routes. A nil Store disables the run
// routes; a nil Allocator disables POST /api/v1/allocate.
type Deps struct {
	Store     handlers.RunStore
	Allocator handlers.Allocator
	Log       *logger.Logger

	// CORSOrigins restricts cross-origin callers. Empty allows all.
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS(d.CORSOrigins...))
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))

	pinger, _ := d.Store.(handlers.Pinger)
	router.GET("/health", handlers.Health(pinger))

	api := router.Group("/api/v1")
	if d.Store != nil {
		runs := handlers.NewRunHandler(d.Store, d.Log)
		api.GET("/runs", runs.ListRuns)
		api.GET("/runs/:id/days", runs.ListDays)
		api.GET("/runs/:id/days/:date/outcomes", runs.Outcomes)
		api.GET("/runs/:id/summary", runs.Summary)
	}
	if d.Allocator != nil {
		alloc := handlers.NewAllocateHandler(d.Allocator, d.Log)
		api.POST("/allocate", alloc.Allocate)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
