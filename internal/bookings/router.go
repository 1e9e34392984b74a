package bookings

import (
	"ticketpoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	// Public ticket purchase
	tickets := router.Group("/tickets")
	{
		tickets.POST("/booking", controller.CreateBooking)           // POST /api/v1/tickets/booking - Reserve a ticket
		tickets.POST("/booking/:bookingId", controller.ResendTicket) // POST /api/v1/tickets/booking/:bookingId - Resend issued ticket
	}

	// Payment gateway webhook
	payments := router.Group("/payments")
	{
		payments.POST("/notifications", controller.PaymentNotification) // POST /api/v1/payments/notifications - Gateway notification
	}

	// Operator booking management
	bookings := router.Group("/bookings")
	bookings.Use(auth, middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
	{
		bookings.GET("/:bookingId", controller.GetBooking)            // GET /api/v1/bookings/:bookingId - Booking details
		bookings.POST("/:bookingId/cancel", controller.CancelBooking) // POST /api/v1/bookings/:bookingId/cancel - Cancel and release seat
	}
}
