package main

import (
	"escaperooms-directory/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all routes
func (a *App) setupRoutes() {
	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.Router.GET("/health", a.HealthHandler.Health)
	a.setupAPIRoutes()
}

// setupAPIRoutes configures API routes
func (a *App) setupAPIRoutes() {
	api := a.Router.Group("/api")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("", a.RoomHandler.ListRooms)
			rooms.GET("/:id", a.RoomHandler.GetRoomByID)
			rooms.GET("/slug/:slug", a.RoomHandler.GetRoomBySlug)
		}

		api.GET("/states", a.RoomHandler.GetStates)
		api.GET("/cities", a.RoomHandler.GetCities)
		api.GET("/themes", a.RoomHandler.GetThemes)
		api.GET("/countries", a.RoomHandler.GetCountries)
		api.GET("/stats", a.RoomHandler.GetStats)

		// Maintenance routes
		admin := api.Group("/cache")
		admin.Use(middleware.AdminToken(a.Config.Server.AdminToken))
		{
			admin.DELETE("/:key", a.CacheHandler.InvalidateKey)
			admin.POST("/invalidate", a.CacheHandler.InvalidatePattern)
		}
	}
}
