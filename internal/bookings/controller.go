package bookings

import (
	"errors"
	"net/http"
	"strconv"
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

func (c *Controller) Reserve(ctx *gin.Context) {
	userID, ok := identityFromContext(ctx)
	if !ok {
		return
	}
	sessionID := ctx.GetString("session_id")
	if sessionID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Session ID is required", nil, "missing session ID")
		return
	}

	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	w, err := req.Window.Window()
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid window", nil, err.Error())
		return
	}
	refs, err := req.Refs()
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid resources", nil, err.Error())
		return
	}

	booking, err := c.service.Reserve(ctx.Request.Context(), userID, sessionID, refs, w,
		time.Duration(req.HoldDurationMin)*time.Minute)
	if err != nil {
		response.RespondJSON(ctx, "error", reserveStatusFor(err), "Failed to reserve resources", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking reserved", toBookingResponse(booking), nil)
}

func (c *Controller) ApplyTransition(ctx *gin.Context) {
	bookingID, ok := bookingIDFromPath(ctx)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	booking, err := c.service.ApplyTransition(ctx.Request.Context(), bookingID, Status(req.Target))
	if err != nil {
		response.RespondJSON(ctx, "error", reserveStatusFor(err), "Failed to apply transition", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Transition applied", toBookingResponse(booking), nil)
}

func (c *Controller) Cancel(ctx *gin.Context) {
	bookingID, ok := bookingIDFromPath(ctx)
	if !ok {
		return
	}

	var req CancelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	booking, err := c.service.Cancel(ctx.Request.Context(), bookingID, req.Reason)
	if err != nil {
		response.RespondJSON(ctx, "error", reserveStatusFor(err), "Failed to cancel booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled", toBookingResponse(booking), nil)
}

func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, ok := bookingIDFromPath(ctx)
	if !ok {
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", reserveStatusFor(err), "Failed to get booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved", toBookingResponse(booking), nil)
}

func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID, ok := identityFromContext(ctx)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	bookings, err := c.service.GetUserBookings(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get bookings", nil, err.Error())
		return
	}

	items := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, toBookingResponse(&bookings[i]))
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved", gin.H{"bookings": items}, nil)
}

func identityFromContext(ctx *gin.Context) (uuid.UUID, bool) {
	userIDStr := ctx.GetString("user_id")
	if userIDStr == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "User ID is required", nil, "missing user ID")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, err.Error())
		return uuid.Nil, false
	}
	return userID, true
}

func bookingIDFromPath(ctx *gin.Context) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, false
	}
	return bookingID, true
}

func reserveStatusFor(err error) int {
	switch {
	case errors.Is(err, faults.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, faults.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, faults.ErrPolicyViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, faults.ErrResourceUnavailable), errors.Is(err, faults.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, faults.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
