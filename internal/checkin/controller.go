package checkin

import (
	"errors"
	"net/http"

	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	ValidateTicket(c *gin.Context)
	GetAttendee(c *gin.Context)
	ListAttendances(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) ValidateTicket(c *gin.Context) {
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

	var req ValidateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, response.ValidationErrors(err))
		return
	}

	result, err := ctrl.service.Validate(c.Request.Context(), operatorID, bookingID, req.Credential)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket checked in successfully", result, nil)
}

func (ctrl *controller) GetAttendee(c *gin.Context) {
	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	credential := c.Param("credential")
	if credential == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Credential is required", nil, nil)
		return
	}

	attendee, err := ctrl.service.GetAttendeeByCredential(c.Request.Context(), operatorID, credential)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Attendee retrieved successfully", attendee, nil)
}

func (ctrl *controller) ListAttendances(c *gin.Context) {
	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	attendances, err := ctrl.service.ListAttendances(c.Request.Context(), operatorID, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Attendances retrieved successfully", attendances, nil)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Failed to process check-in"

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEventNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, ErrCredentialMismatch):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrAlreadyCheckedIn):
		status, message = http.StatusConflict, err.Error()
	}

	response.RespondJSON(c, "error", status, message, nil, nil)
}
