package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/mna-game/mna-indexer/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Aggregate endpoints (public read access)
		v1.GET("/game", handler.GetGame)
		v1.GET("/players/:address", handler.GetPlayer)

		// Token endpoints (public read access)
		v1.GET("/tokens/:contract/:number", handler.GetToken)
		v1.GET("/tokens", handler.ListTokens)

		// Trait population endpoints (public read access)
		v1.GET("/traits", handler.ListTraits)

		// Theft record endpoints (public read access)
		v1.GET("/thefts", handler.ListThefts)

		// Metadata refresh (requires authentication)
		v1.POST("/tokens/:contract/:number/metadata", middleware.Auth(authCfg), handler.RefreshTokenMetadata)
	}
}
