package tiers

import (
	"ticketpoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTierRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	// Public availability
	publicTiers := router.Group("/events/:eventId/tiers")
	{
		publicTiers.GET("", controller.ListTiers) // GET /api/v1/events/:eventId/tiers - Tier availability
	}

	// Event owners manage tiers; ownership is checked per event in the service
	organizerTiers := router.Group("/events/:eventId/tiers")
	organizerTiers.Use(auth, middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
	{
		organizerTiers.POST("", controller.CreateTier)           // POST /api/v1/events/:eventId/tiers - Create tier
		organizerTiers.PATCH("/:tierId", controller.UpdateTier)  // PATCH /api/v1/events/:eventId/tiers/:tierId - Apply tier command
		organizerTiers.DELETE("/:tierId", controller.DeleteTier) // DELETE /api/v1/events/:eventId/tiers/:tierId - Delete tier
	}
}
