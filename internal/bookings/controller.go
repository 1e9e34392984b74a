package bookings

import (
	"errors"
	"net/http"
	"time"

	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateBooking(c *gin.Context)
	ResendTicket(c *gin.Context)
	GetBooking(c *gin.Context)
	CancelBooking(c *gin.Context)
	PaymentNotification(c *gin.Context)
}

type controller struct {
	service Service
	gateway *time.Location
}

// NewController creates the booking controller. gatewayLocation is the zone
// of the payment gateway's transaction timestamps.
func NewController(service Service, gatewayLocation *time.Location) Controller {
	if gatewayLocation == nil {
		gatewayLocation = time.UTC
	}
	return &controller{service: service, gateway: gatewayLocation}
}

func (ctrl *controller) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, response.ValidationErrors(err))
		return
	}

	booking, err := ctrl.service.CreateBooking(c.Request.Context(), req.ToInput())
	if err != nil {
		if errors.Is(err, ErrDuplicateOrder) && booking != nil {
			response.RespondJSON(c, "success", http.StatusOK, "Booking already exists for this order", booking.ToResponse(), nil)
			return
		}
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Ticket booked successfully", booking.ToResponse(), nil)
}

func (ctrl *controller) ResendTicket(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	if err := ctrl.service.ResendTicket(c.Request.Context(), bookingID); err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusAccepted, "Ticket delivery scheduled", nil, nil)
}

func (ctrl *controller) GetBooking(c *gin.Context) {
	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), operatorID, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking.ToResponse(), nil)
}

func (ctrl *controller) CancelBooking(c *gin.Context) {
	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, response.ValidationErrors(err))
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "cancelled by operator"
	}

	if err := ctrl.service.CancelBooking(c.Request.Context(), operatorID, bookingID, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

// PaymentNotification is the gateway webhook. Replays answer 200 so the
// gateway stops retrying.
func (ctrl *controller) PaymentNotification(c *gin.Context) {
	var req PaymentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid notification payload", nil, response.ValidationErrors(err))
		return
	}

	result, err := ctrl.service.ConfirmPayment(c.Request.Context(), req.ToNotification(ctrl.gateway))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Payment confirmed"
	if result.Duplicate {
		message = "Payment already processed"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result, nil)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Failed to process booking"

	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrTierNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrCapacityExceeded):
		status, message = http.StatusConflict, "Ticket tier is sold out"
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrDuplicateOrder):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, ErrPaymentRejected), errors.Is(err, ErrInvalidAttendee):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	default:
		_ = c.Error(err)
	}

	response.RespondJSON(c, "error", status, message, nil, nil)
}
