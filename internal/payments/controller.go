package payments

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

func (c *Controller) GatewayCallback(ctx *gin.Context) {
	var req GatewayCallbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid callback payload", nil, err.Error())
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	paymentLog, err := c.service.HandleGatewayCallback(ctx.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, faults.ErrInvalidWindow):
			statusCode = http.StatusBadRequest
		case errors.Is(err, faults.ErrNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, faults.ErrInvalidTransition):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to process callback", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment recorded", paymentLog, nil)
}

func (c *Controller) GetBookingPayments(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	logs, err := c.service.GetBookingPayments(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get payments", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payments retrieved", gin.H{"payments": logs}, nil)
}
