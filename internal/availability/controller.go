package availability

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

func (c *Controller) Check(ctx *gin.Context) {
	var query CheckQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	w, err := query.Window()
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid window", nil, err.Error())
		return
	}

	ref := ResourceRef{
		Type:     query.Type,
		ID:       uuid.MustParse(query.ID),
		Quantity: query.Quantity,
	}

	result, err := c.service.Check(ctx.Request.Context(), ref, w)
	if err != nil {
		response.RespondJSON(ctx, "error", statusFor(err), "Availability check failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability checked", result, nil)
}

func (c *Controller) SearchArtists(ctx *gin.Context) {
	var query ArtistSearchQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	w, err := query.Window()
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid window", nil, err.Error())
		return
	}

	ids, err := c.service.SearchArtists(ctx.Request.Context(), w)
	if err != nil {
		response.RespondJSON(ctx, "error", statusFor(err), "Artist search failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Available artists retrieved", gin.H{"artist_ids": ids}, nil)
}

func statusFor(err error) int {
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
