package artists

import (
	"errors"
	"net/http"

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

func (c *Controller) CreateArtist(ctx *gin.Context) {
	var req CreateArtistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	artist := &Artist{
		Name:                    req.Name,
		Genre:                   req.Genre,
		Active:                  true,
		CooldownPeriodHours:     req.CooldownPeriodHours,
		MaximumPerformanceHours: req.MaximumPerformanceHours,
	}
	if err := c.service.CreateArtist(ctx.Request.Context(), artist); err != nil {
		response.RespondJSON(ctx, "error", artistStatusFor(err), "Failed to create artist", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Artist created", artist, nil)
}

func (c *Controller) GetArtist(ctx *gin.Context) {
	artistID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid artist ID", nil, err.Error())
		return
	}

	artist, err := c.service.GetArtist(ctx.Request.Context(), artistID)
	if err != nil {
		response.RespondJSON(ctx, "error", artistStatusFor(err), "Failed to get artist", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Artist retrieved", artist, nil)
}

func (c *Controller) DeclareUnavailability(ctx *gin.Context) {
	artistID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid artist ID", nil, err.Error())
		return
	}

	var req UnavailabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	unavail, err := c.service.DeclareUnavailability(ctx.Request.Context(), artistID, req.Date, req.Hours)
	if err != nil {
		response.RespondJSON(ctx, "error", artistStatusFor(err), "Failed to declare unavailability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Unavailability declared", unavail, nil)
}

func artistStatusFor(err error) int {
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
