package tiers

import (
	"errors"
	"net/http"

	"ticketpoint/internal/events"
	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	ListTiers(c *gin.Context)
	CreateTier(c *gin.Context)
	UpdateTier(c *gin.Context)
	DeleteTier(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) ListTiers(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	tiers, err := ctrl.service.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tiers retrieved successfully", tiers, nil)
}

func (ctrl *controller) CreateTier(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	var req CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, response.ValidationErrors(err))
		return
	}

	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Operator not authenticated", nil, nil)
		return
	}

	tier, err := ctrl.service.CreateTier(c.Request.Context(), operatorID, eventID, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Tier created successfully", tier.ToResponse(), nil)
}

func (ctrl *controller) UpdateTier(c *gin.Context) {
	tierID, err := uuid.Parse(c.Param("tierId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid tier ID", nil, err.Error())
		return
	}

	var req UpdateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, response.ValidationErrors(err))
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		respondError(c, err)
		return
	}

	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Operator not authenticated", nil, nil)
		return
	}

	tier, err := ctrl.service.Apply(c.Request.Context(), operatorID, tierID, cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tier updated successfully", tier.ToResponse(), nil)
}

func (ctrl *controller) DeleteTier(c *gin.Context) {
	tierID, err := uuid.Parse(c.Param("tierId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid tier ID", nil, err.Error())
		return
	}

	operatorID, err := middleware.OperatorID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Operator not authenticated", nil, nil)
		return
	}

	if err := ctrl.service.DeleteTier(c.Request.Context(), operatorID, tierID); err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tier deleted successfully", nil, nil)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Failed to process tier request"

	switch {
	case errors.Is(err, ErrTierNotFound), errors.Is(err, events.ErrEventNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, ErrCapacityBelowCommitted):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrEventPublished),
		errors.Is(err, ErrDuplicateTier), errors.Is(err, ErrTierInUse):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, ErrInvalidCommand), errors.Is(err, ErrInvalidCount):
		status, message = http.StatusBadRequest, err.Error()
	}

	response.RespondJSON(c, "error", status, message, nil, nil)
}
