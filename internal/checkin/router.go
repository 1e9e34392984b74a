package checkin

import (
	"ticketpoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCheckinRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	tickets := router.Group("/tickets")
	tickets.Use(auth, middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleStaff, middleware.RoleAdmin))
	{
		tickets.PATCH("/booking/:bookingId", controller.ValidateTicket)  // PATCH /api/v1/tickets/booking/:bookingId - Check in a ticket
		tickets.GET("/attendances/:eventId", controller.ListAttendances) // GET /api/v1/tickets/attendances/:eventId - Event attendances
		tickets.GET("/:credential", controller.GetAttendee)              // GET /api/v1/tickets/:credential - Attendee by credential
	}
}
