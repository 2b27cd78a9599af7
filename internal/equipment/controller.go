package equipment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gigbook/internal/shared/faults"
	"gigbook/internal/shared/utils/response"
	"gigbook/internal/window"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateEquipment(ctx *gin.Context) {
	var req CreateEquipmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	eq := &Equipment{
		Name:       req.Name,
		Category:   req.Category,
		TotalStock: req.TotalStock,
	}
	if err := c.service.CreateEquipment(ctx.Request.Context(), eq); err != nil {
		response.RespondJSON(ctx, "error", equipmentStatusFor(err), "Failed to create equipment", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Equipment created", eq, nil)
}

func (c *Controller) GetEquipment(ctx *gin.Context) {
	equipmentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid equipment ID", nil, err.Error())
		return
	}

	eq, err := c.service.GetEquipment(ctx.Request.Context(), equipmentID)
	if err != nil {
		response.RespondJSON(ctx, "error", equipmentStatusFor(err), "Failed to get equipment", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Equipment retrieved", eq, nil)
}

func (c *Controller) AddMaintenanceBlock(ctx *gin.Context) {
	equipmentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid equipment ID", nil, err.Error())
		return
	}

	var req MaintenanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	block, err := c.service.AddMaintenanceBlock(ctx.Request.Context(), equipmentID, req.Quantity,
		window.DateRange(req.StartDate, req.EndDate), req.Reason)
	if err != nil {
		response.RespondJSON(ctx, "error", equipmentStatusFor(err), "Failed to add maintenance block", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Maintenance block added", block, nil)
}

func equipmentStatusFor(err error) int {
	switch {
	case errors.Is(err, faults.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, faults.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, faults.ErrPolicyViolation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
