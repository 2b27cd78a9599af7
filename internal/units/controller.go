package units

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gigbook/internal/shared/faults"
	"gigbook/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateUnit(ctx *gin.Context) {
	var req CreateUnitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	unit := &Unit{
		VenueID: uuid.MustParse(req.VenueID),
		Kind:    req.Kind,
		Label:   req.Label,
		Price:   req.Price,
	}
	if err := c.service.CreateUnit(ctx.Request.Context(), unit); err != nil {
		response.RespondJSON(ctx, "error", unitStatusFor(err), "Failed to create unit", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Unit created", unit, nil)
}

// GetVenueUnits reports each unit with its effective status so a caller
// browsing a venue sees lapsed locks as available.
func (c *Controller) GetVenueUnits(ctx *gin.Context) {
	venueID, err := uuid.Parse(ctx.Param("venueId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid venue ID", nil, err.Error())
		return
	}

	unitList, err := c.service.GetUnitsByVenue(ctx.Request.Context(), venueID)
	if err != nil {
		response.RespondJSON(ctx, "error", unitStatusFor(err), "Failed to get venue units", nil, err.Error())
		return
	}

	now := time.Now()
	items := make([]gin.H, 0, len(unitList))
	for i := range unitList {
		unit := &unitList[i]
		items = append(items, gin.H{
			"id":     unit.ID,
			"kind":   unit.Kind,
			"label":  unit.Label,
			"price":  unit.Price,
			"status": unit.EffectiveStatus(now),
		})
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Venue units retrieved", gin.H{"units": items}, nil)
}

func unitStatusFor(err error) int {
	switch {
	case errors.Is(err, faults.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, faults.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, faults.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
